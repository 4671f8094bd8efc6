package repository

import "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"

// SessionRepository define el puerto de persistencia para sesiones de
// inventario físico y sus líneas de conteo.
type SessionRepository interface {
	// Create persiste la sesión con sus líneas snapshot. El esquema respalda
	// la regla "una sesión activa por bodega" con un índice único parcial;
	// la violación se traduce a domain.ErrConflict.
	Create(session *entity.InventorySession, lines []*entity.InventoryLine) error
	GetByID(id string) (*entity.InventorySession, error)
	GetByIDForUpdate(id string) (*entity.InventorySession, error)
	// FindActiveByWarehouse devuelve la sesión IN_PROGRESS o PAUSED de la
	// bodega, o nil si no hay.
	FindActiveByWarehouse(warehouseID string) (*entity.InventorySession, error)
	Update(session *entity.InventorySession) error
	ListLines(sessionID string) ([]*entity.InventoryLine, error)
	GetLine(sessionID, productID string) (*entity.InventoryLine, error)
	UpdateLine(line *entity.InventoryLine) error
	// MarkLinesValidated pasa todas las líneas de la sesión a VALIDATED.
	MarkLinesValidated(sessionID string) error
	List(limit, offset int) ([]*entity.InventorySession, error)
}
