package query

import (
	"strings"
)

const (
	TypeGetTransaction = "transactions.query.get"
	TypeHealth         = "transactions.query.health"
)

type GetTransactionMessage struct {
	TransactionID string
}

func (GetTransactionMessage) Type() string { return TypeGetTransaction }

func (m GetTransactionMessage) Validate() error {
	if strings.TrimSpace(m.TransactionID) == "" {
		return queryValidationError("transaction_id", "transaction_id is required")
	}
	return nil
}

type HealthMessage struct{}

func (HealthMessage) Type() string { return TypeHealth }

func (HealthMessage) Validate() error { return nil }
