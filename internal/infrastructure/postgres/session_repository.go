package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implementación de sesiones de inventario sobre PostgreSQL
// (usable con pool o tx).
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

const sessionColumns = `id, reference, warehouse_id, category_id, zone_prefix, product_ids, status, total_products, notes, started_at, finished_at, created_by, validated_by, validated_at, created_at, updated_at`

// Create persiste la sesión con sus líneas snapshot. El índice único parcial
// uq_sessions_active_warehouse respalda la regla "una sesión activa por
// bodega"; su violación se traduce a ErrConflict.
func (r *SessionRepo) Create(s *entity.InventorySession, lines []*entity.InventoryLine) error {
	query := `
		INSERT INTO inventory_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	var productIDs []string
	if len(s.Filter.ProductIDs) > 0 {
		productIDs = s.Filter.ProductIDs
	}
	_, err := r.q.Exec(context.Background(), query,
		s.ID, s.Reference, s.WarehouseID,
		nullable(s.Filter.CategoryID), nullable(s.Filter.ZonePrefix), productIDs,
		string(s.Status), s.TotalProducts, nullable(s.Notes),
		s.StartedAt, s.FinishedAt, s.CreatedBy, nullable(s.ValidatedBy), s.ValidatedAt,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la bodega %s ya tiene una sesión activa", domain.ErrConflict, s.WarehouseID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	for _, l := range lines {
		if err := r.insertLine(l); err != nil {
			return err
		}
	}
	return nil
}

const lineColumns = `id, session_id, product_id, theoretical_quantity, counted_quantity, recounted_quantity, unit_cost, status, needs_recount, location, notes, counted_by, counted_at`

func (r *SessionRepo) insertLine(l *entity.InventoryLine) error {
	query := `
		INSERT INTO inventory_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.SessionID, l.ProductID, l.TheoreticalQuantity,
		l.CountedQuantity, l.RecountedQuantity, l.UnitCost, string(l.Status),
		l.NeedsRecount, nullable(l.Location), nullable(l.Notes),
		nullable(l.CountedBy), l.CountedAt)
	if err != nil {
		return fmt.Errorf("insert inventory line: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión por ID.
func (r *SessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM inventory_sessions WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get session")
}

// GetByIDForUpdate obtiene la sesión y bloquea la fila (SELECT FOR UPDATE).
func (r *SessionRepo) GetByIDForUpdate(id string) (*entity.InventorySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM inventory_sessions WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get session for update")
}

// FindActiveByWarehouse devuelve la sesión IN_PROGRESS o PAUSED de la bodega,
// o nil. Se invoca dentro de la transacción creadora; el índice único parcial
// cubre la carrera entre dos creaciones concurrentes.
func (r *SessionRepo) FindActiveByWarehouse(warehouseID string) (*entity.InventorySession, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM inventory_sessions
		WHERE warehouse_id = $1 AND status IN ('IN_PROGRESS', 'PAUSED')
		LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, warehouseID), "find active session")
}

// Update actualiza estado, notas y marcas de la sesión.
func (r *SessionRepo) Update(s *entity.InventorySession) error {
	query := `
		UPDATE inventory_sessions
		SET status = $2, total_products = $3, notes = $4, finished_at = $5,
		    validated_by = $6, validated_at = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		s.ID, string(s.Status), s.TotalProducts, nullable(s.Notes), s.FinishedAt,
		nullable(s.ValidatedBy), s.ValidatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// ListLines lista las líneas de conteo de la sesión.
func (r *SessionRepo) ListLines(sessionID string) ([]*entity.InventoryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM inventory_lines WHERE session_id = $1 ORDER BY location, product_id`
	rows, err := r.q.Query(context.Background(), query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list inventory lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetLine obtiene la línea de un producto dentro de la sesión.
func (r *SessionRepo) GetLine(sessionID, productID string) (*entity.InventoryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM inventory_lines WHERE session_id = $1 AND product_id = $2`
	l, err := scanLine(r.q.QueryRow(context.Background(), query, sessionID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory line: %w", err)
	}
	return l, nil
}

// UpdateLine actualiza el conteo de una línea.
func (r *SessionRepo) UpdateLine(l *entity.InventoryLine) error {
	query := `
		UPDATE inventory_lines
		SET counted_quantity = $2, recounted_quantity = $3, status = $4,
		    needs_recount = $5, location = $6, notes = $7, counted_by = $8, counted_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.CountedQuantity, l.RecountedQuantity, string(l.Status),
		l.NeedsRecount, nullable(l.Location), nullable(l.Notes),
		nullable(l.CountedBy), l.CountedAt)
	if err != nil {
		return fmt.Errorf("update inventory line: %w", err)
	}
	return nil
}

// MarkLinesValidated pasa todas las líneas de la sesión a VALIDATED.
func (r *SessionRepo) MarkLinesValidated(sessionID string) error {
	query := `UPDATE inventory_lines SET status = 'VALIDATED' WHERE session_id = $1`
	_, err := r.q.Exec(context.Background(), query, sessionID)
	if err != nil {
		return fmt.Errorf("mark lines validated: %w", err)
	}
	return nil
}

// List lista sesiones con paginación.
func (r *SessionRepo) List(limit, offset int) ([]*entity.InventorySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM inventory_sessions ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventorySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SessionRepo) scanOne(row pgx.Row, op string) (*entity.InventorySession, error) {
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func scanSession(row pgx.Row) (*entity.InventorySession, error) {
	var s entity.InventorySession
	var status string
	var categoryID, zonePrefix, notes, validatedBy *string
	var productIDs []string
	if err := row.Scan(&s.ID, &s.Reference, &s.WarehouseID, &categoryID, &zonePrefix,
		&productIDs, &status, &s.TotalProducts, &notes, &s.StartedAt, &s.FinishedAt,
		&s.CreatedBy, &validatedBy, &s.ValidatedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = entity.SessionStatus(status)
	if categoryID != nil {
		s.Filter.CategoryID = *categoryID
	}
	if zonePrefix != nil {
		s.Filter.ZonePrefix = *zonePrefix
	}
	s.Filter.ProductIDs = productIDs
	if notes != nil {
		s.Notes = *notes
	}
	if validatedBy != nil {
		s.ValidatedBy = *validatedBy
	}
	return &s, nil
}

func scanLine(row pgx.Row) (*entity.InventoryLine, error) {
	var l entity.InventoryLine
	var status string
	var location, notes, countedBy *string
	if err := row.Scan(&l.ID, &l.SessionID, &l.ProductID, &l.TheoreticalQuantity,
		&l.CountedQuantity, &l.RecountedQuantity, &l.UnitCost, &status,
		&l.NeedsRecount, &location, &notes, &countedBy, &l.CountedAt); err != nil {
		return nil, err
	}
	l.Status = entity.LineStatus(status)
	if location != nil {
		l.Location = *location
	}
	if notes != nil {
		l.Notes = *notes
	}
	if countedBy != nil {
		l.CountedBy = *countedBy
	}
	return &l, nil
}
