package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del log de movimientos sobre PostgreSQL
// (usable con pool o tx). Solo inserta y consulta: sin UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, warehouse_id, kind, quantity, unit_cost, total_cost, reason, origin_kind, origin_ref_id, created_by, created_at`

// Create persiste un movimiento. El origen (unión etiquetada) se aplana en
// dos columnas: origin_kind y origin_ref_id nullable.
func (r *MovementRepo) Create(m *entity.MovementRecord) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	refID := (*string)(nil)
	if m.Origin.RefID() != "" {
		v := m.Origin.RefID()
		refID = &v
	}
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, m.WarehouseID, string(m.Kind), m.Quantity,
		m.UnitCost, m.TotalCost, m.Reason, string(m.Origin.Kind()), refID,
		m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(id string) (*entity.MovementRecord, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	rows, err := r.q.Query(context.Background(), query, id)
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	defer rows.Close()
	list, err := scanMovementRows(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	return r.list("product_id", productID, from, to, limit, offset)
}

// ListByWarehouse lista movimientos de una bodega en un rango de fechas.
func (r *MovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	return r.list("warehouse_id", warehouseID, from, to, limit, offset)
}

func (r *MovementRepo) list(column, value string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE ` + column + ` = $1`
	args := []any{value}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return scanMovementRows(rows)
}

func scanMovementRows(rows pgx.Rows) ([]*entity.MovementRecord, error) {
	var list []*entity.MovementRecord
	for rows.Next() {
		var m entity.MovementRecord
		var kind, originKind string
		var reason, refID, createdBy *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &kind, &m.Quantity,
			&m.UnitCost, &m.TotalCost, &reason, &originKind, &refID, &createdBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Kind = entity.MovementKind(kind)
		if reason != nil {
			m.Reason = *reason
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		ref := ""
		if refID != nil {
			ref = *refID
		}
		origin, err := entity.OriginFromStored(entity.OriginKind(originKind), ref)
		if err != nil {
			return nil, fmt.Errorf("scan movement origin: %w", err)
		}
		m.Origin = origin
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return list, nil
}
