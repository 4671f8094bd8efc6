package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, warehouse_id, quantity, reserved_quantity, location, updated_at`

// Get obtiene la existencia de un producto en una bodega.
// Si la fila no existe devuelve una entrada en cero (creación perezosa).
func (r *StockRepo) Get(productID, warehouseID string) (*entity.StockEntry, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_entries WHERE product_id = $1 AND warehouse_id = $2`
	entry, err := scanStockRow(r.q.QueryRow(context.Background(), query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockEntry{ProductID: productID, WarehouseID: warehouseID}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return entry, nil
}

const stockForUpdateQuery = `
	SELECT ` + stockColumns + `
	FROM stock_entries WHERE product_id = $1 AND warehouse_id = $2
	FOR UPDATE`

// GetForUpdate obtiene la existencia y bloquea la fila (SELECT FOR UPDATE).
// Si la fila aún no existe la siembra en cero y vuelve a seleccionar con
// lock: un FOR UPDATE que no encontró fila no retiene ningún candado, y dos
// créditos concurrentes sobre una existencia nueva leerían ambos cero y el
// upsert del segundo pisaría el delta del primero.
func (r *StockRepo) GetForUpdate(productID, warehouseID string) (*entity.StockEntry, error) {
	entry, err := scanStockRow(r.q.QueryRow(context.Background(), stockForUpdateQuery, productID, warehouseID))
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}

	seed := `
		INSERT INTO stock_entries (product_id, warehouse_id, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), seed, productID, warehouseID); err != nil {
		return nil, fmt.Errorf("seed stock for update: %w", err)
	}

	// La re-selección sí bloquea la fila, gane quien gane la inserción.
	entry, err = scanStockRow(r.q.QueryRow(context.Background(), stockForUpdateQuery, productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return entry, nil
}

// Upsert inserta o actualiza la existencia (por producto y bodega).
func (r *StockRepo) Upsert(entry *entity.StockEntry) error {
	query := `
		INSERT INTO stock_entries (product_id, warehouse_id, quantity, reserved_quantity, location, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              reserved_quantity = EXCLUDED.reserved_quantity,
		              location = EXCLUDED.location,
		              updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		entry.ProductID, entry.WarehouseID, entry.Quantity, entry.ReservedQuantity, entry.Location)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByWarehouse lista existencias de una bodega aplicando el filtro de
// sesión (categoría del producto, prefijo de zona, subconjunto de productos).
func (r *StockRepo) ListByWarehouse(warehouseID string, filter entity.StockFilter) ([]*entity.StockEntry, error) {
	query := `
		SELECT s.product_id, s.warehouse_id, s.quantity, s.reserved_quantity, s.location, s.updated_at
		FROM stock_entries s
		JOIN products p ON p.id = s.product_id
		WHERE s.warehouse_id = $1`
	args := []any{warehouseID}
	pos := 2
	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND p.category_id = $%d", pos)
		args = append(args, filter.CategoryID)
		pos++
	}
	if filter.ZonePrefix != "" {
		query += fmt.Sprintf(" AND s.location LIKE $%d || '%%'", pos)
		args = append(args, filter.ZonePrefix)
		pos++
	}
	if len(filter.ProductIDs) > 0 {
		query += fmt.Sprintf(" AND s.product_id = ANY($%d)", pos)
		args = append(args, filter.ProductIDs)
		pos++
	}
	query += " ORDER BY s.location, s.product_id"

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock by warehouse: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

// ListByProduct lista las existencias de un producto en todas las bodegas.
func (r *StockRepo) ListByProduct(productID string) ([]*entity.StockEntry, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_entries WHERE product_id = $1 ORDER BY warehouse_id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock by product: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

func scanStockRow(row pgx.Row) (*entity.StockEntry, error) {
	var s entity.StockEntry
	var location *string
	err := row.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.ReservedQuantity, &location, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if location != nil {
		s.Location = *location
	}
	return &s, nil
}

func scanStockRows(rows pgx.Rows) ([]*entity.StockEntry, error) {
	var list []*entity.StockEntry
	for rows.Next() {
		var s entity.StockEntry
		var location *string
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.ReservedQuantity, &location, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		if location != nil {
			s.Location = *location
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
