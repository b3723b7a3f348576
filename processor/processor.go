// Package processor consumes dispatched transaction payloads and performs the
// idempotent completion write. It is safe to run concurrently and to receive
// the same payload more than once.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-transactions/core"
)

// Processor settles a transaction: it simulates the downstream work step and
// then flips the record to PROCESSED with a single conditional update. The
// update is the only decision point; the processor itself keeps no state.
type Processor struct {
	Store core.RecordStore
	// WorkDuration simulates the settlement step between claim and
	// completion. Zero skips the wait entirely.
	WorkDuration time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
	Now          func() time.Time
	Logger       core.Logger
}

func New(store core.RecordStore) *Processor {
	return &Processor{
		Store:        store,
		WorkDuration: 30 * time.Second,
		Sleep:        sleepContext,
		Now: func() time.Time {
			return time.Now().UTC()
		},
		Logger: glog.Ensure(nil),
	}
}

var _ core.PayloadProcessor = (*Processor)(nil)

// Process settles one dispatched payload. A payload without a transaction
// identifier is rejected as fatal input so redelivery loops drop it instead
// of retrying. A guard miss on completion (record absent or already
// PROCESSED) is a benign no-op, not an error.
func (p *Processor) Process(ctx context.Context, payload core.DispatchPayload) error {
	if p == nil || p.Store == nil {
		return goerrors.New("processor: record store is required", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal)
	}

	transactionID := strings.TrimSpace(payload.TransactionID)
	if transactionID == "" {
		return goerrors.New("processor: payload is missing transaction_id", goerrors.CategoryBadInput).
			WithTextCode(core.ErrorCodeInvalidPayload)
	}
	if payload.RequestID != "" {
		ctx = core.WithRequestID(ctx, payload.RequestID)
	}

	fields := map[string]any{
		"transaction_id": transactionID,
		"request_id":     payload.RequestID,
	}
	p.logInfo(ctx, "processing transaction", fields)

	if err := p.work(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "processor: work interrupted").
			WithTextCode(core.ErrorCodeInternal)
	}

	done, err := p.Store.Complete(ctx, transactionID, p.now())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal,
			fmt.Sprintf("processor: completion write failed for %s", transactionID)).
			WithTextCode(core.ErrorCodeInternal)
	}
	if !done {
		// The record is absent or already terminal. Either way the
		// outcome is settled; a redelivery changes nothing.
		p.logInfo(ctx, "completion skipped, record not processing", fields)
		return nil
	}

	p.logInfo(ctx, "transaction processed", fields)
	return nil
}

func (p *Processor) work(ctx context.Context) error {
	if p.WorkDuration <= 0 {
		return nil
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, p.WorkDuration)
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *Processor) logInfo(ctx context.Context, message string, fields map[string]any) {
	if p == nil || p.Logger == nil {
		return
	}
	logger := p.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		fieldsLogger.WithFields(fields).Info(message)
		return
	}
	logger.Info(message)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
