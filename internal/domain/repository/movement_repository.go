package repository

import (
	"time"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del log de movimientos.
// Solo inserta y consulta: los movimientos son inmutables una vez escritos.
type MovementRepository interface {
	Create(record *entity.MovementRecord) error
	GetByID(id string) (*entity.MovementRecord, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error)
}
