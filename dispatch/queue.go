package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-transactions/core"
)

const JobIDProcessTransaction = "transactions.process"

// QueueChannel hands payloads to a durable job queue instead of the
// in-process pool. The transaction identifier doubles as the idempotency key
// so queue-level dedupe lines up with the store's conditional insert.
type QueueChannel struct {
	Enqueuer    core.JobEnqueuer
	JobID       string
	DedupPolicy string
}

func NewQueueChannel(enqueuer core.JobEnqueuer) *QueueChannel {
	return &QueueChannel{
		Enqueuer: enqueuer,
		JobID:    JobIDProcessTransaction,
	}
}

var _ core.DispatchChannel = (*QueueChannel)(nil)

func (c *QueueChannel) Dispatch(ctx context.Context, payload core.DispatchPayload) error {
	if c == nil || c.Enqueuer == nil {
		return fmt.Errorf("dispatch: enqueuer is not configured")
	}
	transactionID := strings.TrimSpace(payload.TransactionID)
	if transactionID == "" {
		return fmt.Errorf("dispatch: payload is missing transaction_id")
	}
	jobID := strings.TrimSpace(c.JobID)
	if jobID == "" {
		jobID = JobIDProcessTransaction
	}
	return c.Enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          jobID,
		Parameters:     PayloadParameters(payload),
		IdempotencyKey: transactionID,
		DedupPolicy:    c.DedupPolicy,
	})
}

// PayloadParameters flattens a payload into job parameters. The amount
// travels as a string so it survives any map round trip without float loss.
func PayloadParameters(payload core.DispatchPayload) map[string]any {
	params := map[string]any{
		"transaction_id": payload.TransactionID,
	}
	if payload.SourceAccount != "" {
		params["source_account"] = payload.SourceAccount
	}
	if payload.DestinationAccount != "" {
		params["destination_account"] = payload.DestinationAccount
	}
	if !payload.Amount.IsZero() {
		params["amount"] = payload.Amount.String()
	}
	if payload.Currency != "" {
		params["currency"] = payload.Currency
	}
	if payload.RequestID != "" {
		params["request_id"] = payload.RequestID
	}
	return params
}

// PayloadFromParameters rebuilds a payload on the consuming side. Readers are
// tolerant; only the transaction identifier is required.
func PayloadFromParameters(params map[string]any) (core.DispatchPayload, error) {
	payload := core.DispatchPayload{
		TransactionID:      stringParam(params, "transaction_id"),
		SourceAccount:      stringParam(params, "source_account"),
		DestinationAccount: stringParam(params, "destination_account"),
		Currency:           stringParam(params, "currency"),
		RequestID:          stringParam(params, "request_id"),
	}
	if payload.TransactionID == "" {
		return core.DispatchPayload{}, fmt.Errorf("dispatch: parameters are missing transaction_id")
	}
	amount, err := amountParam(params, "amount")
	if err != nil {
		return core.DispatchPayload{}, err
	}
	payload.Amount = amount
	return payload, nil
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func amountParam(params map[string]any, key string) (decimal.Decimal, error) {
	value, ok := params[key]
	if !ok || value == nil {
		return decimal.Zero, nil
	}
	switch typed := value.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return decimal.Zero, nil
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(typed))
		if err != nil {
			return decimal.Zero, fmt.Errorf("dispatch: invalid amount parameter %q: %w", typed, err)
		}
		return amount, nil
	case float64:
		return decimal.NewFromFloat(typed), nil
	case int:
		return decimal.NewFromInt(int64(typed)), nil
	case int64:
		return decimal.NewFromInt(typed), nil
	case json.Number:
		amount, err := decimal.NewFromString(typed.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("dispatch: invalid amount parameter %q: %w", typed, err)
		}
		return amount, nil
	case decimal.Decimal:
		return typed, nil
	default:
		return decimal.Zero, fmt.Errorf("dispatch: unsupported amount parameter type %T", value)
	}
}
