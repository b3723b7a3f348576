package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-transactions/core"
)

var (
	_ gocmd.Querier[GetTransactionMessage, core.TransactionRecord] = (*GetTransactionQuery)(nil)
	_ gocmd.Querier[HealthMessage, core.HealthStatus]              = (*HealthQuery)(nil)
)
