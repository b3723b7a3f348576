package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-transactions/core"
)

// TransactionStore persists transaction records with conditional writes. The
// insert and the completion update are each a single statement; the database
// guard is the only arbiter between concurrent submitters and processors.
type TransactionStore struct {
	db   *bun.DB
	repo repository.Repository[*transactionRecord]
}

func NewTransactionStore(db *bun.DB) (*TransactionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*transactionRecord](db, transactionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid transaction repository wiring: %w", err)
		}
	}
	return &TransactionStore{
		db:   db,
		repo: repo,
	}, nil
}

var _ core.RecordStore = (*TransactionStore)(nil)

// Insert creates the row only if the identifier is absent. The primary key
// on transaction_id turns a concurrent double submit into a unique violation
// for every caller but one.
func (s *TransactionStore) Insert(ctx context.Context, record core.TransactionRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: transaction store is not configured")
	}
	transactionID := strings.TrimSpace(record.TransactionID)
	if transactionID == "" {
		return fmt.Errorf("sqlstore: transaction id is required")
	}
	record.TransactionID = transactionID

	row := newTransactionRecord(record)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: insert %s: %w", transactionID, core.ErrRecordExists)
		}
		return err
	}
	return nil
}

// Complete flips the record to PROCESSED only when it is still PROCESSING.
// It reports false without error when the guard does not match, which covers
// both an absent row and an already completed one.
func (s *TransactionStore) Complete(ctx context.Context, transactionID string, processedAt time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: transaction store is not configured")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return false, fmt.Errorf("sqlstore: transaction id is required")
	}

	res, err := s.db.NewUpdate().
		Model((*transactionRecord)(nil)).
		Set("status = ?", string(core.TransactionStatusProcessed)).
		Set("processed_at = ?", processedAt.UTC()).
		Where("transaction_id = ?", transactionID).
		Where("status = ?", string(core.TransactionStatusProcessing)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *TransactionStore) Get(ctx context.Context, transactionID string) (core.TransactionRecord, error) {
	if s == nil || s.db == nil {
		return core.TransactionRecord{}, fmt.Errorf("sqlstore: transaction store is not configured")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return core.TransactionRecord{}, fmt.Errorf("sqlstore: transaction id is required")
	}

	row := &transactionRecord{}
	err := s.db.NewSelect().
		Model(row).
		Where("?TableAlias.transaction_id = ?", transactionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.TransactionRecord{}, fmt.Errorf("sqlstore: get %s: %w", transactionID, core.ErrRecordNotFound)
		}
		return core.TransactionRecord{}, err
	}
	return row.toDomain(), nil
}

// List returns records ordered by creation time. It backs operational
// tooling, not the public surface.
func (s *TransactionStore) List(ctx context.Context, limit int) ([]core.TransactionRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: transaction store is not configured")
	}
	criteria := []repository.SelectCriteria{
		repository.OrderBy("created_at ASC"),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(limit)
		}))
	}
	rows, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
