package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransactionStatusTransition = errors.New("core: invalid transaction status transition")
	ErrRecordExists                       = errors.New("core: transaction record already exists")
	ErrRecordNotFound                     = errors.New("core: transaction record not found")
)

func init() {
	// Amounts must cross the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type TransactionStatus string

const (
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusProcessed  TransactionStatus = "PROCESSED"
)

// TransactionRequest is the webhook payload submitted by callers. The
// transaction identifier doubles as the idempotency key.
type TransactionRequest struct {
	TransactionID      string          `json:"transaction_id"`
	SourceAccount      string          `json:"source_account"`
	DestinationAccount string          `json:"destination_account"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
}

func (r TransactionRequest) FieldErrors() []goerrors.FieldError {
	var fields []goerrors.FieldError
	if strings.TrimSpace(r.TransactionID) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "transaction_id",
			Message: "transaction_id is required",
		})
	}
	if strings.TrimSpace(r.SourceAccount) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "source_account",
			Message: "source_account is required",
		})
	}
	if strings.TrimSpace(r.DestinationAccount) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "destination_account",
			Message: "destination_account is required",
		})
	}
	if r.Amount.IsZero() {
		fields = append(fields, goerrors.FieldError{
			Field:   "amount",
			Message: "amount is required",
		})
	} else if !r.Amount.IsPositive() {
		fields = append(fields, goerrors.FieldError{
			Field:   "amount",
			Message: "amount must be a positive number",
		})
	}
	if strings.TrimSpace(r.Currency) == "" {
		fields = append(fields, goerrors.FieldError{
			Field:   "currency",
			Message: "currency is required",
		})
	}
	return fields
}

// Validate checks field presence first, then amount positivity, and reports
// every failing field in one envelope.
func (r TransactionRequest) Validate() error {
	fields := r.FieldErrors()
	if len(fields) == 0 {
		return nil
	}
	return invalidPayloadError("invalid transaction payload", fields...)
}

// TransactionRecord is the persisted shape of a transaction: one row per
// identifier, created exactly once, completed at most once.
type TransactionRecord struct {
	TransactionID      string            `json:"transaction_id"`
	SourceAccount      string            `json:"source_account"`
	DestinationAccount string            `json:"destination_account"`
	Amount             decimal.Decimal   `json:"amount"`
	Currency           string            `json:"currency"`
	Status             TransactionStatus `json:"status"`
	CreatedAt          time.Time         `json:"created_at"`
	ProcessedAt        *time.Time        `json:"processed_at"`
}

// NewTransactionRecord builds the initial PROCESSING row for a validated
// request.
func NewTransactionRecord(req TransactionRequest, now time.Time) TransactionRecord {
	return TransactionRecord{
		TransactionID:      strings.TrimSpace(req.TransactionID),
		SourceAccount:      req.SourceAccount,
		DestinationAccount: req.DestinationAccount,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Status:             TransactionStatusProcessing,
		CreatedAt:          now.UTC(),
		ProcessedAt:        nil,
	}
}

func (r *TransactionRecord) TransitionTo(status TransactionStatus, now time.Time) error {
	if r == nil {
		return nil
	}
	if r.Status == status {
		return nil
	}
	if !transactionTransitionAllowed(r.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransactionStatusTransition, r.Status, status)
	}
	r.Status = status
	if status == TransactionStatusProcessed {
		processedAt := now.UTC()
		r.ProcessedAt = &processedAt
	}
	return nil
}

func transactionTransitionAllowed(current, next TransactionStatus) bool {
	allowed := map[TransactionStatus]map[TransactionStatus]struct{}{
		TransactionStatusProcessing: {
			TransactionStatusProcessed: {},
		},
		TransactionStatusProcessed: {},
	}
	_, ok := allowed[current][next]
	return ok
}

// DispatchPayload is what crosses the dispatch channel: the full request plus
// a trace identifier. Consumers are tolerant readers and only require the
// transaction identifier.
type DispatchPayload struct {
	TransactionID      string          `json:"transaction_id"`
	SourceAccount      string          `json:"source_account,omitempty"`
	DestinationAccount string          `json:"destination_account,omitempty"`
	Amount             decimal.Decimal `json:"amount,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	RequestID          string          `json:"request_id,omitempty"`
}

func NewDispatchPayload(req TransactionRequest, requestID string) DispatchPayload {
	return DispatchPayload{
		TransactionID:      strings.TrimSpace(req.TransactionID),
		SourceAccount:      req.SourceAccount,
		DestinationAccount: req.DestinationAccount,
		Amount:             req.Amount,
		Currency:           req.Currency,
		RequestID:          strings.TrimSpace(requestID),
	}
}

// SubmitReceipt reports what happened to a submission. Callers over HTTP only
// ever see "accepted"; the receipt carries trace metadata for logs and tests.
type SubmitReceipt struct {
	TransactionID string
	RequestID     string
	Duplicate     bool
}

// HealthStatus is the liveness response body.
type HealthStatus struct {
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"current_time"`
}
