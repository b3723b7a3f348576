package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-transactions/core"
)

type stubMutatingService struct {
	submitFn func(ctx context.Context, req core.TransactionRequest) (core.SubmitReceipt, error)
}

func (s stubMutatingService) Submit(ctx context.Context, req core.TransactionRequest) (core.SubmitReceipt, error) {
	if s.submitFn == nil {
		return core.SubmitReceipt{}, nil
	}
	return s.submitFn(ctx, req)
}

func TestSubmitTransactionCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.SubmitReceipt{TransactionID: "txn-1", RequestID: "req-1"}
	called := false

	svc := stubMutatingService{
		submitFn: func(_ context.Context, req core.TransactionRequest) (core.SubmitReceipt, error) {
			called = true
			if req.TransactionID != "txn-1" {
				t.Fatalf("expected txn-1, got %q", req.TransactionID)
			}
			return expected, nil
		},
	}

	cmd := NewSubmitTransactionCommand(svc)
	collector := gocmd.NewResult[core.SubmitReceipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, SubmitTransactionMessage{Request: core.TransactionRequest{
		TransactionID:      "txn-1",
		SourceAccount:      "acc-1",
		DestinationAccount: "acc-2",
		Amount:             decimal.NewFromInt(10),
		Currency:           "USD",
	}})
	if err != nil {
		t.Fatalf("execute submit: %v", err)
	}
	if !called {
		t.Fatalf("expected submit service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.TransactionID != expected.TransactionID || result.RequestID != expected.RequestID {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestSubmitTransactionCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *SubmitTransactionCommand
	err := cmd.Execute(context.Background(), SubmitTransactionMessage{})
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
}

func TestSubmitTransactionMessage_ValidateUsesRequestRules(t *testing.T) {
	err := (SubmitTransactionMessage{}).Validate()
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
	if len(rich.AllValidationErrors()) == 0 {
		t.Fatalf("expected field errors in envelope")
	}
}
