package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"
)

func validTransactionRequest() TransactionRequest {
	return TransactionRequest{
		TransactionID:      "txn-001",
		SourceAccount:      "acc-100",
		DestinationAccount: "acc-200",
		Amount:             decimal.NewFromFloat(125.50),
		Currency:           "USD",
	}
}

func TestTransactionRequestValidate_ReportsEveryMissingField(t *testing.T) {
	err := TransactionRequest{}.Validate()
	if err == nil {
		t.Fatalf("expected validation error for empty request")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ErrorCodeInvalidPayload {
		t.Fatalf("expected invalid payload code, got %q", richErr.TextCode)
	}
	if richErr.Code != 400 {
		t.Fatalf("expected 400 status, got %d", richErr.Code)
	}

	fields := richErr.AllValidationErrors()
	want := map[string]bool{
		"transaction_id":      false,
		"source_account":      false,
		"destination_account": false,
		"amount":              false,
		"currency":            false,
	}
	for _, field := range fields {
		if _, ok := want[field.Field]; ok {
			want[field.Field] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected field error for %q, got %v", name, fields)
		}
	}
}

func TestTransactionRequestValidate_AmountMustBePositive(t *testing.T) {
	cases := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{name: "zero", amount: decimal.Zero, want: "amount is required"},
		{name: "negative", amount: decimal.NewFromInt(-5), want: "amount must be a positive number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validTransactionRequest()
			req.Amount = tc.amount
			err := req.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var richErr *goerrors.Error
			if !goerrors.As(err, &richErr) {
				t.Fatalf("expected go-errors type, got %T", err)
			}
			found := false
			for _, field := range richErr.AllValidationErrors() {
				if field.Field == "amount" && field.Message == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected amount message %q, got %v", tc.want, richErr.AllValidationErrors())
			}
		})
	}

	req := validTransactionRequest()
	req.Amount = decimal.NewFromFloat(0.01)
	if err := req.Validate(); err != nil {
		t.Fatalf("expected smallest positive amount to pass, got: %v", err)
	}
}

func TestTransactionRecordTransitionTo_ValidAndInvalid(t *testing.T) {
	now := time.Now().UTC()
	record := NewTransactionRecord(validTransactionRequest(), now)
	if record.Status != TransactionStatusProcessing {
		t.Fatalf("expected new record to be processing, got %q", record.Status)
	}
	if record.ProcessedAt != nil {
		t.Fatalf("expected processed_at to be unset on a new record")
	}

	completedAt := now.Add(30 * time.Second)
	if err := record.TransitionTo(TransactionStatusProcessed, completedAt); err != nil {
		t.Fatalf("expected processing->processed to work: %v", err)
	}
	if record.ProcessedAt == nil || !record.ProcessedAt.Equal(completedAt) {
		t.Fatalf("expected processed_at %v, got %v", completedAt, record.ProcessedAt)
	}

	// Re-applying the terminal status is a no-op, not an error.
	if err := record.TransitionTo(TransactionStatusProcessed, completedAt.Add(time.Minute)); err != nil {
		t.Fatalf("expected idempotent terminal transition, got: %v", err)
	}
	if !record.ProcessedAt.Equal(completedAt) {
		t.Fatalf("expected processed_at to stay %v, got %v", completedAt, record.ProcessedAt)
	}

	err := record.TransitionTo(TransactionStatusProcessing, completedAt)
	if !errors.Is(err, ErrInvalidTransactionStatusTransition) {
		t.Fatalf("expected invalid transition error, got: %v", err)
	}
}

func TestDispatchPayloadJSON_AmountIsANumber(t *testing.T) {
	payload := NewDispatchPayload(validTransactionRequest(), "req-1")
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if !strings.Contains(string(raw), `"amount":125.5`) {
		t.Fatalf("expected amount as a bare number, got %s", raw)
	}
	if !strings.Contains(string(raw), `"request_id":"req-1"`) {
		t.Fatalf("expected request id in payload, got %s", raw)
	}
}
