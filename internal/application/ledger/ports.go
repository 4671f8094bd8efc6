package ledger

import (
	"context"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
// Todo paso de workflow que muta el libro recibe este conjunto y trabaja
// exclusivamente sobre él.
type TxRepos struct {
	Stock      repository.StockRepository
	Movements  repository.MovementRepository
	Products   repository.ProductRepository
	Transfers  repository.TransferRepository
	Sessions   repository.SessionRepository
	References repository.ReferenceRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad: si fn devuelve error,
// ningún escrito de la unidad sobrevive (rollback); si no, todos (commit).
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
