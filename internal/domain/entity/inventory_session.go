package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
)

// SessionStatus estado de una sesión de inventario físico.
type SessionStatus string

// Estados de la sesión.
const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusPaused     SessionStatus = "PAUSED"
	SessionStatusFinished   SessionStatus = "FINISHED"
	SessionStatusValidated  SessionStatus = "VALIDATED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
)

// IsActive indica si la sesión está abierta (cuenta para la regla de
// "una sola sesión activa por bodega").
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusInProgress || s == SessionStatusPaused
}

// SessionAction acción sobre la sesión, gobernada por la tabla de transiciones.
type SessionAction string

// Acciones de la sesión.
const (
	SessionActionCount    SessionAction = "count"
	SessionActionRecount  SessionAction = "recount"
	SessionActionPause    SessionAction = "pause"
	SessionActionResume   SessionAction = "resume"
	SessionActionFinish   SessionAction = "finish"
	SessionActionValidate SessionAction = "validate"
	SessionActionCancel   SessionAction = "cancel"
)

// sessionAllowedFrom tabla central de transiciones por acción.
// Contar y recontar exigen IN_PROGRESS (fallan en PAUSED); validar se acepta
// desde IN_PROGRESS o FINISHED; una sesión VALIDATED nunca se reabre.
var sessionAllowedFrom = map[SessionAction][]SessionStatus{
	SessionActionCount:    {SessionStatusInProgress},
	SessionActionRecount:  {SessionStatusInProgress},
	SessionActionPause:    {SessionStatusInProgress},
	SessionActionResume:   {SessionStatusPaused},
	SessionActionFinish:   {SessionStatusInProgress},
	SessionActionValidate: {SessionStatusInProgress, SessionStatusFinished},
	SessionActionCancel:   {SessionStatusInProgress, SessionStatusPaused},
}

// InventorySession representa un ciclo de conteo físico y conciliación
// sobre una bodega (o un subconjunto filtrado de ella).
type InventorySession struct {
	ID            string
	Reference     string // secuencial por año, ej. INV-2026-00007
	WarehouseID   string
	Filter        StockFilter
	Status        SessionStatus
	TotalProducts int // cantidad de líneas snapshot al crear
	Notes         string
	StartedAt     time.Time
	FinishedAt    *time.Time
	CreatedBy     string
	ValidatedBy   string
	ValidatedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EnsureCan valida la acción contra la tabla de transiciones.
func (s *InventorySession) EnsureCan(action SessionAction) error {
	for _, from := range sessionAllowedFrom[action] {
		if s.Status == from {
			return nil
		}
	}
	return fmt.Errorf("%w: sesión %s en estado %s no permite %s",
		domain.ErrInvalidState, s.Reference, s.Status, action)
}

// LineStatus estado de una línea de conteo.
type LineStatus string

// Estados de línea.
const (
	LineStatusPending   LineStatus = "PENDING"   // sin contar
	LineStatusCounted   LineStatus = "COUNTED"   // contada con varianza no flagueada
	LineStatusVariance  LineStatus = "VARIANCE"  // varianza > 10%, requiere reconteo
	LineStatusValidated LineStatus = "VALIDATED" // contada sin varianza o sesión validada
)

// recountThresholdPct umbral de reconteo: varianza estrictamente mayor al 10%
// del teórico. El 10% exacto no se flaguea.
const recountThresholdPct = 10

// InventoryLine una línea de conteo dentro de la sesión: snapshot teórico
// del libro al crear la sesión más el conteo (y reconteo) manual.
type InventoryLine struct {
	ID                  string
	SessionID           string
	ProductID           string
	TheoreticalQuantity int64 // snapshot del libro al crear la sesión
	CountedQuantity     *int64
	RecountedQuantity   *int64
	UnitCost            decimal.Decimal // snapshot al crear la sesión
	Status              LineStatus
	NeedsRecount        bool
	Location            string
	Notes               string
	CountedBy           string
	CountedAt           *time.Time
}

// FinalCount devuelve la cantidad que manda: el reconteo si existe,
// si no el conteo. Nil mientras la línea esté PENDING.
func (l *InventoryLine) FinalCount() *int64 {
	if l.RecountedQuantity != nil {
		return l.RecountedQuantity
	}
	return l.CountedQuantity
}

// Variance devuelve la varianza final (conteo que manda menos teórico).
// Cero mientras no haya conteo.
func (l *InventoryLine) Variance() int64 {
	final := l.FinalCount()
	if final == nil {
		return 0
	}
	return *final - l.TheoreticalQuantity
}

// VarianceValue devuelve la varianza valorizada al costo snapshot.
func (l *InventoryLine) VarianceValue() decimal.Decimal {
	return decimal.NewFromInt(l.Variance()).Mul(l.UnitCost)
}

// exceedsRecountThreshold evalúa |variance|/theoretical > 10% en aritmética
// entera exacta. Con teórico cero, cualquier varianza cuenta como 100%.
func exceedsRecountThreshold(variance, theoretical int64) bool {
	if variance < 0 {
		variance = -variance
	}
	if theoretical <= 0 {
		return variance != 0
	}
	return variance*100 > theoretical*recountThresholdPct
}

// ApplyCount registra un conteo: calcula varianza, decide el flag de
// reconteo y el estado de línea. No toca el libro de inventario.
func (l *InventoryLine) ApplyCount(qty int64, actorID string, now time.Time) {
	l.CountedQuantity = &qty
	l.RecountedQuantity = nil
	l.CountedBy = actorID
	l.CountedAt = &now

	variance := qty - l.TheoreticalQuantity
	l.NeedsRecount = exceedsRecountThreshold(variance, l.TheoreticalQuantity)
	switch {
	case l.NeedsRecount:
		l.Status = LineStatusVariance
	case variance != 0:
		l.Status = LineStatusCounted
	default:
		l.Status = LineStatusValidated
	}
}

// ApplyRecount registra el reconteo autoritativo: recalcula la varianza con
// la nueva cantidad y limpia el flag de reconteo sin importar su magnitud.
func (l *InventoryLine) ApplyRecount(qty int64, actorID string, now time.Time) {
	l.RecountedQuantity = &qty
	l.CountedBy = actorID
	l.CountedAt = &now

	l.NeedsRecount = false
	if qty-l.TheoreticalQuantity != 0 {
		l.Status = LineStatusCounted
	} else {
		l.Status = LineStatusValidated
	}
}
