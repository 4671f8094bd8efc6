package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

// WarehouseUseCase registro mínimo de bodegas: lo justo para que el motor
// de inventario pueda validar existencia y flag activo.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create crea una bodega activa.
func (uc *WarehouseUseCase) Create(in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
	}
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Address:   in.Address,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	return toWarehouseResponse(warehouse), nil
}

// SetActive activa o desactiva la bodega. Una bodega inactiva no participa
// en traslados ni sesiones nuevas.
func (uc *WarehouseUseCase) SetActive(id string, active bool) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	warehouse.Active = active
	warehouse.UpdatedAt = time.Now()
	if err := uc.repo.Update(warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas con paginación.
func (uc *WarehouseUseCase) List(limit, offset int) ([]dto.WarehouseResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return items, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Address:   w.Address,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
	}
}
