package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         MovementKind = "IN"         // entrada
	MovementTypeOUT        MovementKind = "OUT"        // salida
	MovementTypeADJUSTMENT MovementKind = "ADJUSTMENT" // ajuste de inventario
	MovementTypeRETURN     MovementKind = "RETURN"     // devolución
	MovementTypeTRANSFER   MovementKind = "TRANSFER"   // traslado entre bodegas
)

// MovementKind clasifica un movimiento de inventario.
type MovementKind string

// Valid indica si el tipo de movimiento es conocido.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT, MovementTypeRETURN, MovementTypeTRANSFER:
		return true
	}
	return false
}

// OriginKind clasifica la causa de un movimiento.
type OriginKind string

// Causas posibles de un movimiento.
const (
	OriginKindNone     OriginKind = "NONE"
	OriginKindTransfer OriginKind = "TRANSFER"
	OriginKindSession  OriginKind = "INVENTORY_SESSION"
	OriginKindManual   OriginKind = "MANUAL_ADJUSTMENT"
)

// MovementOrigin es la unión etiquetada que vincula un movimiento con su causa:
// ninguna, un traslado, una sesión de inventario físico o un ajuste manual.
// Los campos son privados para que solo los constructores produzcan valores válidos.
type MovementOrigin struct {
	kind  OriginKind
	refID string
}

// OriginNone movimiento sin causa asociada.
func OriginNone() MovementOrigin { return MovementOrigin{kind: OriginKindNone} }

// OriginTransfer movimiento causado por el traslado indicado.
func OriginTransfer(transferID string) MovementOrigin {
	return MovementOrigin{kind: OriginKindTransfer, refID: transferID}
}

// OriginSession movimiento causado por la sesión de inventario indicada.
func OriginSession(sessionID string) MovementOrigin {
	return MovementOrigin{kind: OriginKindSession, refID: sessionID}
}

// OriginManual movimiento causado por un ajuste manual.
func OriginManual() MovementOrigin { return MovementOrigin{kind: OriginKindManual} }

// OriginFromStored reconstruye la unión desde su forma persistida.
func OriginFromStored(kind OriginKind, refID string) (MovementOrigin, error) {
	switch kind {
	case OriginKindNone, OriginKindManual:
		return MovementOrigin{kind: kind}, nil
	case OriginKindTransfer, OriginKindSession:
		if refID == "" {
			return MovementOrigin{}, fmt.Errorf("origen %s requiere referencia", kind)
		}
		return MovementOrigin{kind: kind, refID: refID}, nil
	}
	return MovementOrigin{}, fmt.Errorf("origen de movimiento desconocido: %q", kind)
}

// Kind devuelve la etiqueta de la unión.
func (o MovementOrigin) Kind() OriginKind {
	if o.kind == "" {
		return OriginKindNone
	}
	return o.kind
}

// RefID devuelve el id del traslado o sesión; vacío para NONE y MANUAL.
func (o MovementOrigin) RefID() string { return o.refID }

// TransferID devuelve el id del traslado causante, si aplica.
func (o MovementOrigin) TransferID() (string, bool) {
	return o.refID, o.kind == OriginKindTransfer
}

// SessionID devuelve el id de la sesión causante, si aplica.
func (o MovementOrigin) SessionID() (string, bool) {
	return o.refID, o.kind == OriginKindSession
}

// MovementRecord es el registro inmutable de un cambio de cantidad en el
// libro de inventario. Quantity es siempre la magnitud positiva; el signo
// del cambio lo determina Kind (OUT resta, el resto suma o ajusta).
type MovementRecord struct {
	ID          string
	ProductID   string
	WarehouseID string
	Kind        MovementKind
	Quantity    int64           // magnitud, siempre > 0
	UnitCost    decimal.Decimal // snapshot del costo unitario al momento del movimiento
	TotalCost   decimal.Decimal
	Reason      string
	Origin      MovementOrigin
	CreatedBy   string
	CreatedAt   time.Time
}
