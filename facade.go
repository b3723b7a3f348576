package transactions

import (
	"fmt"

	txcommand "github.com/goliatone/go-transactions/command"
	txquery "github.com/goliatone/go-transactions/query"
)

// CommandQueryService is the surface the facade wires command and query
// handlers against. *core.Service satisfies it.
type CommandQueryService interface {
	txcommand.MutatingService
	txquery.StatusReader
	txquery.HealthReader
}

type Commands struct {
	SubmitTransaction *txcommand.SubmitTransactionCommand
}

type Queries struct {
	GetTransaction *txquery.GetTransactionQuery
	Health         *txquery.HealthQuery
}

// Facade bundles the pipeline's command and query handlers around one
// service instance so dispatcher wiring stays in a single place.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("transactions: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		SubmitTransaction: txcommand.NewSubmitTransactionCommand(service),
	}
	facade.queries = Queries{
		GetTransaction: txquery.NewGetTransactionQuery(service),
		Health:         txquery.NewHealthQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
