package query

import (
	"context"

	"github.com/goliatone/go-transactions/core"
)

type StatusReader interface {
	GetStatus(ctx context.Context, transactionID string) (core.TransactionRecord, error)
}

type HealthReader interface {
	Health(ctx context.Context) core.HealthStatus
}

type GetTransactionQuery struct {
	reader StatusReader
}

func NewGetTransactionQuery(reader StatusReader) *GetTransactionQuery {
	return &GetTransactionQuery{reader: reader}
}

func (q *GetTransactionQuery) Query(ctx context.Context, msg GetTransactionMessage) (core.TransactionRecord, error) {
	if q == nil || q.reader == nil {
		return core.TransactionRecord{}, queryDependencyError("query: status reader is required")
	}
	return q.reader.GetStatus(ctx, msg.TransactionID)
}

type HealthQuery struct {
	reader HealthReader
}

func NewHealthQuery(reader HealthReader) *HealthQuery {
	return &HealthQuery{reader: reader}
}

func (q *HealthQuery) Query(ctx context.Context, _ HealthMessage) (core.HealthStatus, error) {
	if q == nil || q.reader == nil {
		return core.HealthStatus{}, queryDependencyError("query: health reader is required")
	}
	return q.reader.Health(ctx), nil
}
