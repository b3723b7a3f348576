package query

import (
	"context"
	"net/http"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-transactions/core"
)

type stubStatusReader struct {
	record core.TransactionRecord
	err    error
}

func (s stubStatusReader) GetStatus(_ context.Context, transactionID string) (core.TransactionRecord, error) {
	if s.err != nil {
		return core.TransactionRecord{}, s.err
	}
	if s.record.TransactionID != transactionID {
		return core.TransactionRecord{}, core.ErrRecordNotFound
	}
	return s.record, nil
}

type stubHealthReader struct {
	status core.HealthStatus
}

func (s stubHealthReader) Health(context.Context) core.HealthStatus {
	return s.status
}

func TestGetTransactionQuery_DelegatesToReader(t *testing.T) {
	record := core.TransactionRecord{
		TransactionID: "txn-1",
		Status:        core.TransactionStatusProcessing,
		CreatedAt:     time.Now().UTC(),
	}
	q := NewGetTransactionQuery(stubStatusReader{record: record})

	got, err := q.Query(context.Background(), GetTransactionMessage{TransactionID: "txn-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.TransactionID != "txn-1" || got.Status != core.TransactionStatusProcessing {
		t.Fatalf("unexpected record: %#v", got)
	}
}

func TestGetTransactionQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *GetTransactionQuery
	_, err := q.Query(context.Background(), GetTransactionMessage{TransactionID: "txn-1"})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorCodeInternal {
		t.Fatalf("expected internal text code, got %q", rich.TextCode)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rich.Code)
	}
}

func TestGetTransactionMessage_ValidateReturnsRichError(t *testing.T) {
	err := (GetTransactionMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorCodeInvalidPayload {
		t.Fatalf("expected invalid payload code, got %q", rich.TextCode)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 || validation[0].Field != "transaction_id" {
		t.Fatalf("expected transaction_id field error, got %v", validation)
	}
}

func TestHealthQuery_ReturnsReaderStatus(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	q := NewHealthQuery(stubHealthReader{status: core.HealthStatus{Status: "OK", CurrentTime: now}})

	status, err := q.Query(context.Background(), HealthMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if status.Status != "OK" || !status.CurrentTime.Equal(now) {
		t.Fatalf("unexpected status: %#v", status)
	}
}
