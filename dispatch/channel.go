// Package dispatch carries accepted transaction payloads from the ingest
// surface to the processor. Delivery is at-least-once; consumers are expected
// to be idempotent.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-transactions/core"
)

type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialRetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p ExponentialRetryPolicy) NextDelay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.Max
	if maximum <= 0 {
		maximum = 30 * time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// InProcessChannel is a buffered in-memory channel with a worker pool. A send
// that would block fails synchronously so the caller can surface the error
// instead of stalling the ingest path. Worker delivery retries transient
// failures with exponential backoff and drops fatal-input payloads.
type InProcessChannel struct {
	Processor   core.PayloadProcessor
	RetryPolicy RetryPolicy
	MaxAttempts int
	Logger      core.Logger
	Sleep       func(ctx context.Context, d time.Duration) error

	queue chan core.DispatchPayload
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewInProcessChannel(processor core.PayloadProcessor, cfg core.DispatchConfig) *InProcessChannel {
	bufferSize := cfg.BufferSize
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &InProcessChannel{
		Processor:   processor,
		RetryPolicy: ExponentialRetryPolicy{},
		MaxAttempts: 5,
		Logger:      glog.Ensure(nil),
		queue:       make(chan core.DispatchPayload, bufferSize),
	}
}

var _ core.DispatchChannel = (*InProcessChannel)(nil)

// Start launches the worker pool. Workers run until Close drains the queue or
// the context is canceled.
func (c *InProcessChannel) Start(ctx context.Context, workers int) error {
	if c == nil || c.Processor == nil {
		return fmt.Errorf("dispatch: processor is required")
	}
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("dispatch: channel already started")
	}
	c.started = true
	c.mu.Unlock()

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}
	return nil
}

// Dispatch enqueues a payload. It never blocks: a full buffer or a closed
// channel returns an error synchronously.
func (c *InProcessChannel) Dispatch(ctx context.Context, payload core.DispatchPayload) error {
	if c == nil {
		return fmt.Errorf("dispatch: channel is not configured")
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("dispatch: channel is closed")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dispatch: context done: %w", err)
		}
	}
	select {
	case c.queue <- payload:
		return nil
	default:
		return fmt.Errorf("dispatch: buffer full, transaction %s not enqueued", payload.TransactionID)
	}
}

// Close stops accepting payloads, lets the workers drain what is buffered,
// and waits for them to exit.
func (c *InProcessChannel) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.queue)
	c.wg.Wait()
}

func (c *InProcessChannel) worker(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.queue:
			if !ok {
				return
			}
			c.deliver(ctx, payload)
		}
	}
}

func (c *InProcessChannel) deliver(ctx context.Context, payload core.DispatchPayload) {
	maxAttempts := c.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	policy := c.RetryPolicy
	if policy == nil {
		policy = ExponentialRetryPolicy{}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.Processor.Process(ctx, payload)
		if lastErr == nil {
			return
		}
		if IsFatalInput(lastErr) {
			c.logError(ctx, "dropping undeliverable payload", payload, lastErr, attempt)
			return
		}
		if attempt == maxAttempts {
			break
		}
		c.logError(ctx, "delivery failed, retrying", payload, lastErr, attempt)
		if err := c.sleep(ctx, policy.NextDelay(attempt)); err != nil {
			return
		}
	}
	c.logError(ctx, "delivery exhausted retries", payload, lastErr, maxAttempts)
}

func (c *InProcessChannel) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	sleep := c.Sleep
	if sleep != nil {
		return sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *InProcessChannel) logError(ctx context.Context, message string, payload core.DispatchPayload, err error, attempt int) {
	if c == nil || c.Logger == nil {
		return
	}
	logger := c.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	fields := map[string]any{
		"transaction_id": payload.TransactionID,
		"request_id":     payload.RequestID,
		"attempt":        attempt,
		"error":          err.Error(),
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		fieldsLogger.WithFields(fields).Error(message)
		return
	}
	logger.Error(message, "transaction_id", payload.TransactionID, "attempt", attempt, "error", err)
}

// IsFatalInput reports whether the processor rejected the payload itself.
// Retrying a malformed payload can never succeed.
func IsFatalInput(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	switch richErr.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return true
	default:
		return false
	}
}
