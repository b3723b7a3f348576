// Package gojob bridges the pipeline's queue contracts onto go-job, for
// deployments that dispatch through a durable queue instead of the
// in-process channel.
package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-transactions/core"
	"github.com/goliatone/go-transactions/dispatch"
)

// ToExecutionMessage maps a pipeline message to go-job.
func ToExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

// FromExecutionMessage maps a go-job message into the pipeline contract.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	// The receipt only matters to callers tracking queue positions; the
	// pipeline keys everything off the idempotency key instead.
	if _, err := a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg)); err != nil {
		return err
	}
	return nil
}

// Consumer pulls transaction jobs off a go-job queue and feeds the payload
// processor. Fatal payloads dead-letter; transient failures requeue with a
// delay so redelivery stays bounded by the queue's own policy.
type Consumer struct {
	Dequeuer   queue.Dequeuer
	Processor  core.PayloadProcessor
	RetryDelay time.Duration
	Logger     core.Logger
}

func NewConsumer(dequeuer queue.Dequeuer, processor core.PayloadProcessor) *Consumer {
	return &Consumer{
		Dequeuer:   dequeuer,
		Processor:  processor,
		RetryDelay: 5 * time.Second,
		Logger:     glog.Ensure(nil),
	}
}

// Run consumes deliveries until the context is canceled or the dequeuer
// fails.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil || c.Dequeuer == nil || c.Processor == nil {
		return fmt.Errorf("gojob: consumer requires dequeuer and processor")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := c.Dequeuer.Dequeue(ctx)
		if err != nil {
			return err
		}
		if delivery == nil {
			continue
		}
		if err := c.Handle(ctx, delivery); err != nil {
			c.logError(ctx, "delivery handling failed", err)
		}
	}
}

// Handle settles a single delivery, acking or nacking based on the processor
// outcome.
func (c *Consumer) Handle(ctx context.Context, delivery queue.Delivery) error {
	if c == nil || c.Processor == nil {
		return fmt.Errorf("gojob: consumer requires a processor")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}

	msg := FromExecutionMessage(delivery.Message())
	if msg == nil {
		return delivery.Nack(ctx, queue.NackOptions{
			Disposition: queue.NackDispositionDeadLetter,
			Reason:      "empty execution message",
		})
	}

	payload, err := dispatch.PayloadFromParameters(msg.Parameters)
	if err != nil {
		return delivery.Nack(ctx, queue.NackOptions{
			Disposition: queue.NackDispositionDeadLetter,
			Reason:      err.Error(),
		})
	}

	if err := c.Processor.Process(ctx, payload); err != nil {
		if isFatalInput(err) {
			return delivery.Nack(ctx, queue.NackOptions{
				Disposition: queue.NackDispositionDeadLetter,
				Reason:      err.Error(),
			})
		}
		return delivery.Nack(ctx, queue.NackOptions{
			Disposition: queue.NackDispositionRetry,
			Delay:       c.retryDelay(),
			Reason:      err.Error(),
		})
	}
	return delivery.Ack(ctx)
}

func (c *Consumer) retryDelay() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return 5 * time.Second
}

func (c *Consumer) logError(ctx context.Context, message string, err error) {
	if c == nil || c.Logger == nil {
		return
	}
	logger := c.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Error(message, "error", err)
}

func isFatalInput(err error) bool {
	return dispatch.IsFatalInput(err)
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
