package postgres

import (
	"context"
	"fmt"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

var _ repository.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo secuencias anuales de referencias (TRF/INV) sobre PostgreSQL.
// Debe usarse con la tx que crea el documento: el UPDATE del contador
// serializa creaciones concurrentes del mismo tipo y año.
type ReferenceRepo struct {
	q Querier
}

// NewReferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReferenceRepository(q Querier) *ReferenceRepo {
	return &ReferenceRepo{q: q}
}

// Next incrementa y devuelve el siguiente valor de la secuencia (kind, year).
func (r *ReferenceRepo) Next(kind string, year int) (int64, error) {
	query := `
		INSERT INTO reference_sequences (kind, year, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, year)
		DO UPDATE SET value = reference_sequences.value + 1
		RETURNING value`
	var value int64
	if err := r.q.QueryRow(context.Background(), query, kind, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("next reference %s-%d: %w", kind, year, err)
	}
	return value, nil
}
