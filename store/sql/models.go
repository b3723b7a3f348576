package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-transactions/core"
)

type transactionRecord struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	TransactionID      string          `bun:"transaction_id,pk"`
	SourceAccount      string          `bun:"source_account,notnull"`
	DestinationAccount string          `bun:"destination_account,notnull"`
	Amount             decimal.Decimal `bun:"amount,notnull,type:numeric"`
	Currency           string          `bun:"currency,notnull"`
	Status             string          `bun:"status,notnull"`
	CreatedAt          time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ProcessedAt        *time.Time      `bun:"processed_at,nullzero"`
}

func newTransactionRecord(record core.TransactionRecord) *transactionRecord {
	row := &transactionRecord{
		TransactionID:      record.TransactionID,
		SourceAccount:      record.SourceAccount,
		DestinationAccount: record.DestinationAccount,
		Amount:             record.Amount,
		Currency:           record.Currency,
		Status:             string(record.Status),
		CreatedAt:          record.CreatedAt.UTC(),
	}
	if record.ProcessedAt != nil {
		processedAt := record.ProcessedAt.UTC()
		row.ProcessedAt = &processedAt
	}
	return row
}

func (r *transactionRecord) toDomain() core.TransactionRecord {
	if r == nil {
		return core.TransactionRecord{}
	}
	record := core.TransactionRecord{
		TransactionID:      r.TransactionID,
		SourceAccount:      r.SourceAccount,
		DestinationAccount: r.DestinationAccount,
		Amount:             r.Amount,
		Currency:           r.Currency,
		Status:             core.TransactionStatus(r.Status),
		CreatedAt:          r.CreatedAt,
	}
	if r.ProcessedAt != nil {
		processedAt := *r.ProcessedAt
		record.ProcessedAt = &processedAt
	}
	return record
}
