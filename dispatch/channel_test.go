package dispatch

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-transactions/core"
)

type recordingProcessor struct {
	mu        sync.Mutex
	processed []core.DispatchPayload
	failures  int
	err       error
	done      chan struct{}
}

func (p *recordingProcessor) Process(_ context.Context, payload core.DispatchPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures != 0 {
		if p.failures > 0 {
			p.failures--
		}
		return p.err
	}
	p.processed = append(p.processed, payload)
	if p.done != nil {
		p.done <- struct{}{}
	}
	return nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

func TestInProcessChannel_DeliversToProcessor(t *testing.T) {
	proc := &recordingProcessor{done: make(chan struct{}, 1)}
	channel := NewInProcessChannel(proc, core.DispatchConfig{BufferSize: 4})
	if err := channel.Start(context.Background(), 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer channel.Close()

	payload := core.DispatchPayload{TransactionID: "txn-1", RequestID: "req-1"}
	if err := channel.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected delivery within deadline")
	}
	if proc.count() != 1 {
		t.Fatalf("expected one delivery, got %d", proc.count())
	}
	if proc.processed[0].TransactionID != "txn-1" {
		t.Fatalf("expected txn-1, got %q", proc.processed[0].TransactionID)
	}
}

func TestInProcessChannel_FullBufferFailsSynchronously(t *testing.T) {
	// No workers started, so the buffer never drains.
	channel := NewInProcessChannel(&recordingProcessor{}, core.DispatchConfig{BufferSize: 1})

	if err := channel.Dispatch(context.Background(), core.DispatchPayload{TransactionID: "txn-1"}); err != nil {
		t.Fatalf("first dispatch should fit the buffer: %v", err)
	}
	err := channel.Dispatch(context.Background(), core.DispatchPayload{TransactionID: "txn-2"})
	if err == nil {
		t.Fatalf("expected saturation error")
	}
}

func TestInProcessChannel_DispatchAfterCloseFails(t *testing.T) {
	channel := NewInProcessChannel(&recordingProcessor{}, core.DispatchConfig{BufferSize: 1})
	if err := channel.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	channel.Close()

	if err := channel.Dispatch(context.Background(), core.DispatchPayload{TransactionID: "txn-1"}); err == nil {
		t.Fatalf("expected dispatch on closed channel to fail")
	}
}

func TestInProcessChannel_RetriesTransientFailures(t *testing.T) {
	proc := &recordingProcessor{
		done:     make(chan struct{}, 1),
		failures: 2,
		err:      stderrors.New("transient"),
	}
	channel := NewInProcessChannel(proc, core.DispatchConfig{BufferSize: 4})
	channel.MaxAttempts = 5
	channel.RetryPolicy = ExponentialRetryPolicy{Initial: time.Millisecond, Max: 5 * time.Millisecond}
	if err := channel.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer channel.Close()

	if err := channel.Dispatch(context.Background(), core.DispatchPayload{TransactionID: "txn-1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected delivery after retries")
	}
}

func TestInProcessChannel_DropsFatalInput(t *testing.T) {
	proc := &recordingProcessor{
		failures: -1,
		err:      goerrors.New("missing transaction_id", goerrors.CategoryBadInput),
	}
	channel := NewInProcessChannel(proc, core.DispatchConfig{BufferSize: 4})
	channel.RetryPolicy = ExponentialRetryPolicy{Initial: time.Millisecond, Max: time.Millisecond}
	if err := channel.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := channel.Dispatch(context.Background(), core.DispatchPayload{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	channel.Close()

	if proc.count() != 0 {
		t.Fatalf("expected fatal payload to be dropped, got %d deliveries", proc.count())
	}
}

func TestExponentialRetryPolicy_NextDelay(t *testing.T) {
	policy := ExponentialRetryPolicy{Initial: time.Second, Max: 10 * time.Second}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{9, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := policy.NextDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

type capturingEnqueuer struct {
	messages []*core.JobExecutionMessage
	err      error
}

func (e *capturingEnqueuer) Enqueue(_ context.Context, msg *core.JobExecutionMessage) error {
	if e.err != nil {
		return e.err
	}
	e.messages = append(e.messages, msg)
	return nil
}

func TestQueueChannel_EnqueuesWithIdempotencyKey(t *testing.T) {
	enqueuer := &capturingEnqueuer{}
	channel := NewQueueChannel(enqueuer)

	payload := core.DispatchPayload{
		TransactionID:      "txn-9",
		SourceAccount:      "acc-1",
		DestinationAccount: "acc-2",
		Amount:             decimal.RequireFromString("125.50"),
		Currency:           "USD",
		RequestID:          "req-9",
	}
	if err := channel.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(enqueuer.messages))
	}

	msg := enqueuer.messages[0]
	if msg.JobID != JobIDProcessTransaction {
		t.Fatalf("expected job id %q, got %q", JobIDProcessTransaction, msg.JobID)
	}
	if msg.IdempotencyKey != "txn-9" {
		t.Fatalf("expected idempotency key txn-9, got %q", msg.IdempotencyKey)
	}

	rebuilt, err := PayloadFromParameters(msg.Parameters)
	if err != nil {
		t.Fatalf("rebuild payload: %v", err)
	}
	if !rebuilt.Amount.Equal(payload.Amount) {
		t.Fatalf("expected amount %s, got %s", payload.Amount, rebuilt.Amount)
	}
	if rebuilt.RequestID != "req-9" {
		t.Fatalf("expected request id to round trip, got %q", rebuilt.RequestID)
	}
}

func TestQueueChannel_RejectsMissingTransactionID(t *testing.T) {
	channel := NewQueueChannel(&capturingEnqueuer{})
	if err := channel.Dispatch(context.Background(), core.DispatchPayload{}); err == nil {
		t.Fatalf("expected missing transaction_id error")
	}
}

func TestPayloadFromParameters_ToleratesPartialInput(t *testing.T) {
	payload, err := PayloadFromParameters(map[string]any{"transaction_id": "txn-1"})
	if err != nil {
		t.Fatalf("minimal parameters: %v", err)
	}
	if payload.TransactionID != "txn-1" {
		t.Fatalf("expected txn-1, got %q", payload.TransactionID)
	}

	if _, err := PayloadFromParameters(map[string]any{}); err == nil {
		t.Fatalf("expected missing transaction_id error")
	}

	if _, err := PayloadFromParameters(map[string]any{
		"transaction_id": "txn-1",
		"amount":         "not-a-number",
	}); err == nil {
		t.Fatalf("expected invalid amount error")
	}
}
