package repository

import "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"

// TransferRepository define el puerto de persistencia para traslados y sus líneas.
type TransferRepository interface {
	// Create persiste el traslado con sus líneas.
	Create(transfer *entity.Transfer, lines []*entity.TransferLine) error
	GetByID(id string) (*entity.Transfer, error)
	// GetByIDForUpdate bloquea la fila del traslado: la guarda de estado y la
	// transición se evalúan sobre la misma lectura dentro de la transacción.
	GetByIDForUpdate(id string) (*entity.Transfer, error)
	Update(transfer *entity.Transfer) error
	ListLines(transferID string) ([]*entity.TransferLine, error)
	UpdateLine(line *entity.TransferLine) error
	List(status entity.TransferStatus, limit, offset int) ([]*entity.Transfer, error)
}
