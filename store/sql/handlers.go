package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func transactionHandlers() repository.ModelHandlers[*transactionRecord] {
	return repository.ModelHandlers[*transactionRecord]{
		NewRecord: func() *transactionRecord {
			return &transactionRecord{}
		},
		GetID: func(record *transactionRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.TransactionID)
		},
		SetID: func(record *transactionRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.TransactionID = id.String()
		},
		GetIdentifier: func() string {
			return "transaction_id"
		},
		GetIdentifierValue: func(record *transactionRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.TransactionID)
		},
	}
}

// parseUUID is lenient: callers may use non-UUID transaction identifiers, in
// which case the repository falls back to the identifier column.
func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
