// Package transfer implementa la máquina de estados de traslados entre
// bodegas (PENDING → IN_TRANSIT → COMPLETE, con cancelación) sobre el
// mutador del libro de inventario. Toda acción que muta el libro se ejecuta
// como una unidad atómica: o se aplican los deltas y movimientos de todas
// las líneas, o ninguno.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

// referenceKind clave de la secuencia anual de referencias de traslado.
const referenceKind = "TRF"

// UseCase orquesta el ciclo de vida de los traslados.
type UseCase struct {
	txRunner      ledger.TxRunner
	transferRepo  repository.TransferRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		transferRepo:  transferRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// Create valida y persiste un traslado en PENDING con sus líneas.
// No muta el libro: el stock solo se mueve al despachar.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if in.SourceID == "" || in.DestinationID == "" {
		return nil, fmt.Errorf("%w: bodega origen y destino son obligatorias", domain.ErrInvalidInput)
	}
	if in.SourceID == in.DestinationID {
		return nil, fmt.Errorf("%w: bodega origen y destino deben ser distintas", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: el traslado requiere al menos una línea", domain.ErrInvalidInput)
	}

	source, err := uc.activeWarehouse(in.SourceID)
	if err != nil {
		return nil, err
	}
	dest, err := uc.activeWarehouse(in.DestinationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}

	transfer := &entity.Transfer{
		ID:            uuid.New().String(),
		SourceID:      source.ID,
		DestinationID: dest.ID,
		Status:        entity.TransferStatusPending,
		Date:          date,
		Notes:         in.Notes,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	lines := make([]*entity.TransferLine, 0, len(in.Lines))
	seen := make(map[string]bool, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: cantidad solicitada debe ser >= 1 (producto %s)", domain.ErrInvalidInput, l.ProductID)
		}
		// Una línea por producto; el duplicado se rechaza aquí y no como
		// violación del índice único al insertar.
		if seen[l.ProductID] {
			return nil, fmt.Errorf("%w: producto %s repetido en las líneas", domain.ErrInvalidInput, l.ProductID)
		}
		seen[l.ProductID] = true
		product, err := uc.productRepo.GetByID(l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		lines = append(lines, &entity.TransferLine{
			ID:                uuid.New().String(),
			TransferID:        transfer.ID,
			ProductID:         product.ID,
			RequestedQuantity: l.Quantity,
			UnitCost:          product.UnitCost,
		})
	}

	// Referencia secuencial y persistencia en la misma transacción:
	// la secuencia anual no deja huecos si el insert falla.
	err = uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		seq, err := r.References.Next(referenceKind, now.Year())
		if err != nil {
			return err
		}
		transfer.Reference = fmt.Sprintf("%s-%d-%05d", referenceKind, now.Year(), seq)
		return r.Transfers.Create(transfer, lines)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// Ship despacha el traslado completo: verifica disponibilidad
// (existencia − reservado) de cada línea en la bodega origen y descuenta
// todas las líneas en una unidad atómica. Cualquier línea sin stock
// suficiente aborta la acción completa sin escribir nada.
func (uc *UseCase) Ship(ctx context.Context, actorID, transferID string) (*dto.TransferResponse, error) {
	var transfer *entity.Transfer
	var lines []*entity.TransferLine

	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		transfer, lines, err = uc.lockTransfer(r, transferID)
		if err != nil {
			return err
		}
		if err := transfer.EnsureCan(entity.TransferActionShip); err != nil {
			return err
		}

		now := time.Now()
		for _, line := range lines {
			// ApplyDelta bloquea la fila de stock y verifica la disponibilidad
			// sobre esa misma lectura; el rechazo aborta toda la transacción.
			_, err := ledger.ApplyDelta(r, ledger.Delta{
				ProductID:   line.ProductID,
				WarehouseID: transfer.SourceID,
				Quantity:    -line.RequestedQuantity,
				Kind:        entity.MovementTypeOUT,
				UnitCost:    line.UnitCost,
				Reason:      "Despacho traslado " + transfer.Reference,
				Origin:      entity.OriginTransfer(transfer.ID),
				ActorID:     actorID,
				Now:         now,
			})
			if err != nil {
				return err
			}
		}

		transfer.Status = entity.TransferStatusInTransit
		transfer.UpdatedAt = now
		return r.Transfers.Update(transfer)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// Receive recibe el traslado completo en la bodega destino: acredita cada
// línea por lo solicitado (creando la existencia si no existe) y pasa a
// COMPLETE.
func (uc *UseCase) Receive(ctx context.Context, actorID, transferID string) (*dto.TransferResponse, error) {
	var transfer *entity.Transfer
	var lines []*entity.TransferLine

	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		transfer, lines, err = uc.lockTransfer(r, transferID)
		if err != nil {
			return err
		}
		if err := transfer.EnsureCan(entity.TransferActionReceive); err != nil {
			return err
		}

		now := time.Now()
		for _, line := range lines {
			_, err := ledger.ApplyDelta(r, ledger.Delta{
				ProductID:   line.ProductID,
				WarehouseID: transfer.DestinationID,
				Quantity:    line.RequestedQuantity,
				Kind:        entity.MovementTypeIN,
				UnitCost:    line.UnitCost,
				Reason:      "Recepción traslado " + transfer.Reference,
				Origin:      entity.OriginTransfer(transfer.ID),
				ActorID:     actorID,
				Now:         now,
			})
			if err != nil {
				return err
			}
			line.ReceivedQuantity = line.RequestedQuantity
			if err := r.Transfers.UpdateLine(line); err != nil {
				return err
			}
		}

		transfer.Status = entity.TransferStatusComplete
		transfer.CompletedAt = &now
		transfer.UpdatedAt = now
		return r.Transfers.Update(transfer)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// ReceivePartial recibe cantidades por línea. La cantidad recibida REEMPLAZA
// el valor anterior de la línea (no acumula), lo que permite corregir una
// recepción previa. Si tras aplicar todas las líneas quedan completas, el
// traslado pasa a COMPLETE; si no, permanece IN_TRANSIT.
func (uc *UseCase) ReceivePartial(ctx context.Context, actorID, transferID string, in dto.ReceivePartialRequest) (*dto.TransferResponse, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la recepción parcial requiere al menos una línea", domain.ErrInvalidInput)
	}

	var transfer *entity.Transfer
	var lines []*entity.TransferLine

	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		transfer, lines, err = uc.lockTransfer(r, transferID)
		if err != nil {
			return err
		}
		if err := transfer.EnsureCan(entity.TransferActionReceive); err != nil {
			return err
		}

		byID := make(map[string]*entity.TransferLine, len(lines))
		for _, l := range lines {
			byID[l.ID] = l
		}

		// Validación completa antes de cualquier escrito: una línea
		// desconocida o excedida falla la llamada entera.
		for _, rl := range in.Lines {
			line, ok := byID[rl.LineID]
			if !ok {
				return fmt.Errorf("%w: línea %s no pertenece al traslado %s", domain.ErrInvalidInput, rl.LineID, transfer.Reference)
			}
			if rl.Quantity < 0 {
				return fmt.Errorf("%w: cantidad recibida negativa (línea %s)", domain.ErrInvalidInput, rl.LineID)
			}
			if rl.Quantity > line.RequestedQuantity {
				return fmt.Errorf("%w: recibido %d excede lo solicitado %d (línea %s)",
					domain.ErrInvalidInput, rl.Quantity, line.RequestedQuantity, rl.LineID)
			}
		}

		now := time.Now()
		for _, rl := range in.Lines {
			line := byID[rl.LineID]
			if rl.Quantity > 0 {
				_, err := ledger.ApplyDelta(r, ledger.Delta{
					ProductID:   line.ProductID,
					WarehouseID: transfer.DestinationID,
					Quantity:    rl.Quantity,
					Kind:        entity.MovementTypeIN,
					UnitCost:    line.UnitCost,
					Reason:      "Recepción parcial traslado " + transfer.Reference,
					Origin:      entity.OriginTransfer(transfer.ID),
					ActorID:     actorID,
					Now:         now,
				})
				if err != nil {
					return err
				}
			}
			line.ReceivedQuantity = rl.Quantity
			if err := r.Transfers.UpdateLine(line); err != nil {
				return err
			}
		}

		if in.Notes != "" {
			transfer.Notes = in.Notes
		}
		if entity.AllLinesReceived(lines) {
			transfer.Status = entity.TransferStatusComplete
			transfer.CompletedAt = &now
		}
		transfer.UpdatedAt = now
		return r.Transfers.Update(transfer)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// Cancel cancela el traslado. Desde IN_TRANSIT re-acredita a la bodega
// origen lo despachado (lo solicitado por línea, ya que el despacho mueve
// siempre la cantidad completa); desde PENDING no hay nada que devolver.
func (uc *UseCase) Cancel(ctx context.Context, actorID, transferID, reason string) (*dto.TransferResponse, error) {
	var transfer *entity.Transfer
	var lines []*entity.TransferLine

	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		transfer, lines, err = uc.lockTransfer(r, transferID)
		if err != nil {
			return err
		}
		if err := transfer.EnsureCan(entity.TransferActionCancel); err != nil {
			return err
		}

		now := time.Now()
		if transfer.Status == entity.TransferStatusInTransit {
			motive := "Cancelación traslado " + transfer.Reference
			if reason != "" {
				motive += ": " + reason
			}
			for _, line := range lines {
				_, err := ledger.ApplyDelta(r, ledger.Delta{
					ProductID:   line.ProductID,
					WarehouseID: transfer.SourceID,
					Quantity:    line.RequestedQuantity,
					Kind:        entity.MovementTypeIN,
					UnitCost:    line.UnitCost,
					Reason:      motive,
					Origin:      entity.OriginTransfer(transfer.ID),
					ActorID:     actorID,
					Now:         now,
				})
				if err != nil {
					return err
				}
			}
		}

		transfer.Status = entity.TransferStatusCancelled
		if reason != "" {
			transfer.Notes = reason
		}
		transfer.UpdatedAt = now
		return r.Transfers.Update(transfer)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// Update modifica fecha y notas de un traslado todavía PENDING.
func (uc *UseCase) Update(ctx context.Context, transferID string, in dto.UpdateTransferRequest) (*dto.TransferResponse, error) {
	var transfer *entity.Transfer
	var lines []*entity.TransferLine

	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		transfer, lines, err = uc.lockTransfer(r, transferID)
		if err != nil {
			return err
		}
		if err := transfer.EnsureCan(entity.TransferActionUpdate); err != nil {
			return err
		}
		if in.Date != nil {
			transfer.Date = *in.Date
		}
		if in.Notes != nil {
			transfer.Notes = *in.Notes
		}
		transfer.UpdatedAt = time.Now()
		return r.Transfers.Update(transfer)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// GetByID devuelve un traslado con sus líneas.
func (uc *UseCase) GetByID(id string) (*dto.TransferResponse, error) {
	transfer, err := uc.transferRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	lines, err := uc.transferRepo.ListLines(id)
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// List lista traslados con paginación y filtro opcional por estado.
func (uc *UseCase) List(status string, limit, offset int) (*dto.TransferListResponse, error) {
	list, err := uc.transferRepo.List(entity.TransferStatus(status), limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t, nil))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// lockTransfer carga el traslado con FOR UPDATE y sus líneas.
func (uc *UseCase) lockTransfer(r ledger.TxRepos, id string) (*entity.Transfer, []*entity.TransferLine, error) {
	transfer, err := r.Transfers.GetByIDForUpdate(id)
	if err != nil {
		return nil, nil, err
	}
	if transfer == nil {
		return nil, nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	lines, err := r.Transfers.ListLines(id)
	if err != nil {
		return nil, nil, err
	}
	return transfer, lines, nil
}

// activeWarehouse obtiene la bodega y valida que exista y esté activa.
func (uc *UseCase) activeWarehouse(id string) (*entity.Warehouse, error) {
	warehouse, err := uc.warehouseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	if !warehouse.Active {
		return nil, fmt.Errorf("%w: bodega %s inactiva", domain.ErrInvalidInput, id)
	}
	return warehouse, nil
}

func toTransferResponse(t *entity.Transfer, lines []*entity.TransferLine) *dto.TransferResponse {
	resp := &dto.TransferResponse{
		ID:            t.ID,
		Reference:     t.Reference,
		SourceID:      t.SourceID,
		DestinationID: t.DestinationID,
		Status:        string(t.Status),
		Date:          t.Date,
		Notes:         t.Notes,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.TransferLineResponse{
			ID:                l.ID,
			ProductID:         l.ProductID,
			RequestedQuantity: l.RequestedQuantity,
			ReceivedQuantity:  l.ReceivedQuantity,
			UnitCost:          l.UnitCost,
		})
	}
	return resp
}
