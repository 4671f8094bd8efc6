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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del catálogo de productos sobre PostgreSQL
// (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, barcode, name, description, category_id, unit_cost, unit_measure, created_at, updated_at`

// Create persiste un producto. SKU duplicado se traduce a ErrConflict.
func (r *ProductRepo) Create(p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.SKU, nullable(p.Barcode), p.Name, nullable(p.Description),
		nullable(p.CategoryID), p.UnitCost, nullable(p.UnitMeasure), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s", domain.ErrConflict, p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get product")
}

// GetByBarcode obtiene un producto por código de barras.
func (r *ProductRepo) GetByBarcode(barcode string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, barcode), "get product by barcode")
}

// ListByIDs obtiene los productos del conjunto de IDs.
func (r *ProductRepo) ListByIDs(ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.q.Query(context.Background(), query, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	defer rows.Close()
	return scanProductRows(rows)
}

// List lista productos con paginación.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sku LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProductRows(rows)
}

func (r *ProductRepo) scanOne(row pgx.Row, op string) (*entity.Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var barcode, description, categoryID, unitMeasure *string
	if err := row.Scan(&p.ID, &p.SKU, &barcode, &p.Name, &description,
		&categoryID, &p.UnitCost, &unitMeasure, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if barcode != nil {
		p.Barcode = *barcode
	}
	if description != nil {
		p.Description = *description
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	if unitMeasure != nil {
		p.UnitMeasure = *unitMeasure
	}
	return &p, nil
}

func scanProductRows(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// nullable convierte cadena vacía a NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
