package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
)

// TransferStatus estado de un traslado entre bodegas.
type TransferStatus string

// Estados del traslado.
const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusComplete  TransferStatus = "COMPLETE"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// TransferAction acción sobre el traslado, gobernada por la tabla de transiciones.
type TransferAction string

// Acciones del traslado.
const (
	TransferActionShip    TransferAction = "ship"
	TransferActionReceive TransferAction = "receive"
	TransferActionCancel  TransferAction = "cancel"
	TransferActionUpdate  TransferAction = "update"
)

// transferAllowedFrom tabla central de transiciones: estados desde los cuales
// se permite cada acción. Toda validación de estado pasa por aquí, no por
// chequeos sueltos en cada método.
var transferAllowedFrom = map[TransferAction][]TransferStatus{
	TransferActionShip:    {TransferStatusPending},
	TransferActionReceive: {TransferStatusInTransit},
	TransferActionCancel:  {TransferStatusPending, TransferStatusInTransit},
	TransferActionUpdate:  {TransferStatusPending},
}

// Transfer representa un traslado de stock entre dos bodegas.
// Ciclo de vida: PENDING → IN_TRANSIT → COMPLETE, con cancelación
// posible desde PENDING o IN_TRANSIT.
type Transfer struct {
	ID            string
	Reference     string // secuencial por año, ej. TRF-2026-00042
	SourceID      string // bodega origen
	DestinationID string // bodega destino
	Status        TransferStatus
	Date          time.Time
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// TransferLine una línea de producto dentro del traslado.
// Invariante: 0 <= ReceivedQuantity <= RequestedQuantity.
type TransferLine struct {
	ID                string
	TransferID        string
	ProductID         string
	RequestedQuantity int64
	ReceivedQuantity  int64
	UnitCost          decimal.Decimal // snapshot al crear el traslado
}

// EnsureCan valida contra la tabla de transiciones que la acción sea
// permitida en el estado actual. Devuelve ErrInvalidState envuelto con detalle.
func (t *Transfer) EnsureCan(action TransferAction) error {
	for _, from := range transferAllowedFrom[action] {
		if t.Status == from {
			return nil
		}
	}
	return fmt.Errorf("%w: traslado %s en estado %s no permite %s",
		domain.ErrInvalidState, t.Reference, t.Status, action)
}

// AllLinesReceived indica si cada línea recibió exactamente lo solicitado.
// COMPLETE solo es alcanzable cuando esto es verdadero.
func AllLinesReceived(lines []*TransferLine) bool {
	for _, l := range lines {
		if l.ReceivedQuantity != l.RequestedQuantity {
			return false
		}
	}
	return len(lines) > 0
}
