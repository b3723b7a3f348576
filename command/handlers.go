package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-transactions/core"
)

type MutatingService interface {
	Submit(ctx context.Context, req core.TransactionRequest) (core.SubmitReceipt, error)
}

type SubmitTransactionCommand struct {
	service MutatingService
}

func NewSubmitTransactionCommand(service MutatingService) *SubmitTransactionCommand {
	return &SubmitTransactionCommand{service: service}
}

func (c *SubmitTransactionCommand) Execute(ctx context.Context, msg SubmitTransactionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: submit service is required")
	}
	out, err := c.service.Submit(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
