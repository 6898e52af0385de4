// Package store provides the ledger store: data access for bank accounts,
// statements and their lines, ledger entries, and link records, keyed by
// cartório. It is pure data access; business rules (scoring, status
// decisions, the one-to-one invariant) live in the matcher and the linker.
//
// Two implementations exist: Memory, used by tests and as the in-process
// default, and SQLite, used by the CLI and the HTTP server.
package store

import (
	"context"

	"conciliador/internal/models"
)

// Store is the ledger store contract.
//
// Reads are scoped by cartório: a record that exists under another tenant
// resolves as not found. All mutations of link state must go through InTx so
// the linker can commit its three-record write as one atomic unit.
type Store interface {
	GetContaBancaria(ctx context.Context, cartorioID, id string) (*models.ContaBancaria, error)
	GetExtrato(ctx context.Context, cartorioID, id string) (*models.Extrato, error)
	GetExtratoItem(ctx context.Context, cartorioID, id string) (*models.ExtratoItem, error)
	GetLancamento(ctx context.Context, cartorioID, id string) (*models.Lancamento, error)
	GetConciliacao(ctx context.Context, cartorioID, id string) (*models.Conciliacao, error)

	ListExtratoItens(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.ExtratoItem, error)
	ListLancamentos(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.Lancamento, error)
	ListConciliacoes(ctx context.Context, cartorioID string) ([]*models.Conciliacao, error)

	// PutContaBancaria and friends insert or replace records. They serve
	// ingestion and seeding; the matching core itself never creates ledger
	// records outside a link transaction.
	PutContaBancaria(ctx context.Context, conta *models.ContaBancaria) error
	PutExtrato(ctx context.Context, extrato *models.Extrato) error
	PutExtratoItem(ctx context.Context, item *models.ExtratoItem) error
	PutLancamento(ctx context.Context, lancamento *models.Lancamento) error

	// InTx runs fn inside a transaction. Mutations made through the Tx view
	// become visible only if fn returns nil and the context is still alive;
	// any error (including cancellation) rolls back every staged write.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the mutating view available inside a transaction. Reads through a
// Tx see the current committed state plus the transaction's own writes.
type Tx interface {
	GetExtratoItem(cartorioID, id string) (*models.ExtratoItem, error)
	GetLancamento(cartorioID, id string) (*models.Lancamento, error)
	GetConciliacao(cartorioID, id string) (*models.Conciliacao, error)

	UpdateExtratoItem(item *models.ExtratoItem) error
	UpdateLancamento(lancamento *models.Lancamento) error
	InsertConciliacao(conciliacao *models.Conciliacao) error
	DeleteConciliacao(cartorioID, id string) error
}
