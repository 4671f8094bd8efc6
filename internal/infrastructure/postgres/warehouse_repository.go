package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del registro de bodegas sobre PostgreSQL
// (usable con pool o tx).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

const warehouseColumns = `id, name, address, active, created_at, updated_at`

// Create persiste una bodega.
func (r *WarehouseRepo) Create(w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (` + warehouseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		w.ID, w.Name, nullable(w.Address), w.Active, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1`
	var w entity.Warehouse
	var address *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&w.ID, &w.Name, &address, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	if address != nil {
		w.Address = *address
	}
	return &w, nil
}

// Update actualiza nombre, dirección y flag activo.
func (r *WarehouseRepo) Update(w *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, address = $3, active = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		w.ID, w.Name, nullable(w.Address), w.Active, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	return nil
}

// List lista bodegas con paginación.
func (r *WarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		var address *string
		if err := rows.Scan(&w.ID, &w.Name, &address, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		if address != nil {
			w.Address = *address
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}
