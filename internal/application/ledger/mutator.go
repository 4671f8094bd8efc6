// Package ledger contiene el mutador del libro de inventario: el único
// camino legal para cambiar cantidades en StockEntry. Cada delta escribe
// el nuevo valor del libro y exactamente un MovementRecord, ambos dentro
// de la transacción del caller (TxRepos).
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// Delta describe un cambio de cantidad a aplicar sobre el libro.
// Quantity es firmada: positiva suma, negativa resta.
type Delta struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	Kind        entity.MovementKind
	UnitCost    decimal.Decimal // snapshot del costo al momento del movimiento
	Reason      string
	Origin      entity.MovementOrigin
	ActorID     string
	Now         time.Time
}

// ApplyDelta bloquea la fila de stock (SELECT FOR UPDATE), calcula la nueva
// cantidad y la rechaza sin escribir si quedaría negativa o por debajo de lo
// reservado. Si pasa, escribe el nuevo valor y agrega el movimiento.
// El chequeo y el escrito se evalúan sobre la misma lectura consistente:
// dos despachos concurrentes del mismo producto+bodega no pueden pasar
// ambos la verificación.
func ApplyDelta(r TxRepos, d Delta) (*entity.StockEntry, error) {
	if d.Quantity == 0 {
		return nil, fmt.Errorf("%w: delta de cantidad cero", domain.ErrInvalidInput)
	}
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, d.Kind)
	}

	entry, err := r.Stock.GetForUpdate(d.ProductID, d.WarehouseID)
	if err != nil {
		return nil, err
	}

	newQty := entry.Quantity + d.Quantity
	if newQty < 0 || newQty < entry.ReservedQuantity {
		available := entry.Available()
		return nil, fmt.Errorf("%w: producto %s bodega %s: disponible %d, solicitado %d",
			domain.ErrInsufficientStock, d.ProductID, d.WarehouseID, available, -d.Quantity)
	}

	entry.Quantity = newQty
	entry.UpdatedAt = d.Now
	if err := r.Stock.Upsert(entry); err != nil {
		return nil, err
	}

	magnitude := d.Quantity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	record := &entity.MovementRecord{
		ID:          uuid.New().String(),
		ProductID:   d.ProductID,
		WarehouseID: d.WarehouseID,
		Kind:        d.Kind,
		Quantity:    magnitude,
		UnitCost:    d.UnitCost,
		TotalCost:   decimal.NewFromInt(magnitude).Mul(d.UnitCost),
		Reason:      d.Reason,
		Origin:      d.Origin,
		CreatedBy:   d.ActorID,
		CreatedAt:   d.Now,
	}
	if err := r.Movements.Create(record); err != nil {
		return nil, err
	}
	return entry, nil
}
