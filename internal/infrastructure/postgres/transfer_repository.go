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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de traslados sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, reference, source_warehouse_id, destination_warehouse_id, status, date, notes, created_by, created_at, updated_at, completed_at`

// Create persiste el traslado con sus líneas. Referencia duplicada se
// traduce a ErrConflict.
func (r *TransferRepo) Create(t *entity.Transfer, lines []*entity.TransferLine) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.Reference, t.SourceID, t.DestinationID, string(t.Status),
		t.Date, nullable(t.Notes), t.CreatedBy, t.CreatedAt, t.UpdatedAt, t.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: referencia %s", domain.ErrConflict, t.Reference)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	for _, l := range lines {
		if err := r.insertLine(l); err != nil {
			return err
		}
	}
	return nil
}

func (r *TransferRepo) insertLine(l *entity.TransferLine) error {
	query := `
		INSERT INTO transfer_lines (id, transfer_id, product_id, requested_quantity, received_quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.TransferID, l.ProductID, l.RequestedQuantity, l.ReceivedQuantity, l.UnitCost)
	if err != nil {
		return fmt.Errorf("insert transfer line: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado por ID.
func (r *TransferRepo) GetByID(id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get transfer")
}

// GetByIDForUpdate obtiene el traslado y bloquea la fila (SELECT FOR UPDATE):
// la guarda de estado de la acción se evalúa sobre esta misma lectura, por lo
// que dos acciones concurrentes sobre el mismo traslado no pasan ambas.
func (r *TransferRepo) GetByIDForUpdate(id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get transfer for update")
}

// Update actualiza estado, fecha, notas y marcas de tiempo del traslado.
func (r *TransferRepo) Update(t *entity.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $2, date = $3, notes = $4, updated_at = $5, completed_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, string(t.Status), t.Date, nullable(t.Notes), t.UpdatedAt, t.CompletedAt)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return nil
}

// ListLines lista las líneas del traslado.
func (r *TransferRepo) ListLines(transferID string) ([]*entity.TransferLine, error) {
	query := `
		SELECT id, transfer_id, product_id, requested_quantity, received_quantity, unit_cost
		FROM transfer_lines WHERE transfer_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(context.Background(), query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferLine
	for rows.Next() {
		var l entity.TransferLine
		if err := rows.Scan(&l.ID, &l.TransferID, &l.ProductID,
			&l.RequestedQuantity, &l.ReceivedQuantity, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// UpdateLine actualiza la cantidad recibida de una línea.
func (r *TransferRepo) UpdateLine(l *entity.TransferLine) error {
	query := `UPDATE transfer_lines SET received_quantity = $2 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, l.ID, l.ReceivedQuantity)
	if err != nil {
		return fmt.Errorf("update transfer line: %w", err)
	}
	return nil
}

// List lista traslados con paginación y filtro opcional por estado.
func (r *TransferRepo) List(status entity.TransferStatus, limit, offset int) ([]*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers`
	args := []any{}
	pos := 1
	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", pos)
		args = append(args, string(status))
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TransferRepo) scanOne(row pgx.Row, op string) (*entity.Transfer, error) {
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var status string
	var notes *string
	if err := row.Scan(&t.ID, &t.Reference, &t.SourceID, &t.DestinationID, &status,
		&t.Date, &notes, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	if notes != nil {
		t.Notes = *notes
	}
	return &t, nil
}
