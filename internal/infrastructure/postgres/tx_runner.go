package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con
// repositorios atados a esa tx. Es la unidad atómica de los workflows:
// commit si fn devuelve nil, rollback si no.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tr ledger.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ledger.TxRepos{
		Stock:      NewStockRepository(tx),
		Movements:  NewMovementRepository(tx),
		Products:   NewProductRepository(tx),
		Transfers:  NewTransferRepository(tx),
		Sessions:   NewSessionRepository(tx),
		References: NewReferenceRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
