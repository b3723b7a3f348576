package command

import (
	"github.com/goliatone/go-transactions/core"
)

const (
	TypeSubmitTransaction = "transactions.command.submit"
)

type SubmitTransactionMessage struct {
	Request core.TransactionRequest
}

func (SubmitTransactionMessage) Type() string { return TypeSubmitTransaction }

func (m SubmitTransactionMessage) Validate() error {
	return m.Request.Validate()
}
