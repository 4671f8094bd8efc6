// Package stock expone el lado de lectura del libro (consultas para
// colaboradores como reposición y reportes) y el ajuste manual, único
// camino de mutación fuera de los dos workflows.
package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

// UseCase consultas del libro y ajuste manual.
type UseCase struct {
	txRunner     ledger.TxRunner
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	productRepo  repository.ProductRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		productRepo:  productRepo,
	}
}

// Adjust aplica un ajuste manual firmado sobre el libro (origen
// ManualAdjustment). Kind acepta ADJUSTMENT (default) o RETURN; las
// devoluciones solo suman.
func (uc *UseCase) Adjust(ctx context.Context, actorID string, in dto.AdjustStockRequest) (*dto.StockEntryResponse, error) {
	if in.ProductID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrInvalidInput)
	}
	if in.Quantity == 0 {
		return nil, fmt.Errorf("%w: cantidad cero", domain.ErrInvalidInput)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: el ajuste manual requiere motivo", domain.ErrInvalidInput)
	}

	kind := entity.MovementTypeADJUSTMENT
	switch in.Kind {
	case "", string(entity.MovementTypeADJUSTMENT):
	case string(entity.MovementTypeRETURN):
		if in.Quantity < 0 {
			return nil, fmt.Errorf("%w: una devolución no puede restar stock", domain.ErrInvalidInput)
		}
		kind = entity.MovementTypeRETURN
	default:
		return nil, fmt.Errorf("%w: tipo de ajuste %q", domain.ErrInvalidInput, in.Kind)
	}

	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}

	var entry *entity.StockEntry
	err = uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		entry, err = ledger.ApplyDelta(r, ledger.Delta{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			Kind:        kind,
			UnitCost:    product.UnitCost,
			Reason:      in.Reason,
			Origin:      entity.OriginManual(),
			ActorID:     actorID,
			Now:         time.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return toStockResponse(entry), nil
}

// GetWarehouseStock lista las existencias de una bodega (filtro opcional).
func (uc *UseCase) GetWarehouseStock(warehouseID string, filter entity.StockFilter) ([]dto.StockEntryResponse, error) {
	entries, err := uc.stockRepo.ListByWarehouse(warehouseID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, *toStockResponse(e))
	}
	return out, nil
}

// GetProductStock lista las existencias de un producto en todas las bodegas.
func (uc *UseCase) GetProductStock(productID string) ([]dto.StockEntryResponse, error) {
	entries, err := uc.stockRepo.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, *toStockResponse(e))
	}
	return out, nil
}

// ListMovements consulta el log de movimientos por producto o bodega con
// rango de fechas y paginación. Lectura pura: el log es inmutable.
func (uc *UseCase) ListMovements(productID, warehouseID string, from, to *time.Time, limit, offset int) (*dto.MovementListResponse, error) {
	var list []*entity.MovementRecord
	var err error
	switch {
	case productID != "":
		list, err = uc.movementRepo.ListByProduct(productID, from, to, limit, offset)
	case warehouseID != "":
		list, err = uc.movementRepo.ListByWarehouse(warehouseID, from, to, limit, offset)
	default:
		return nil, fmt.Errorf("%w: indicar producto o bodega", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.MovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Kind:        string(m.Kind),
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			TotalCost:   m.TotalCost,
			Reason:      m.Reason,
			OriginKind:  string(m.Origin.Kind()),
			OriginRefID: m.Origin.RefID(),
			CreatedBy:   m.CreatedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toStockResponse(e *entity.StockEntry) *dto.StockEntryResponse {
	return &dto.StockEntryResponse{
		ProductID:        e.ProductID,
		WarehouseID:      e.WarehouseID,
		Quantity:         e.Quantity,
		ReservedQuantity: e.ReservedQuantity,
		Available:        e.Available(),
		Location:         e.Location,
		UpdatedAt:        e.UpdatedAt,
	}
}
