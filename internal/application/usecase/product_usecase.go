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

// ProductUseCase catálogo mínimo de productos: existencia, costo y barcode
// para los workflows de inventario.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto.
func (uc *ProductUseCase) Create(in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: sku y nombre son obligatorios", domain.ErrInvalidInput)
	}
	if in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         in.SKU,
		Barcode:     in.Barcode,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		UnitCost:    in.UnitCost,
		UnitMeasure: in.UnitMeasure,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(limit, offset int) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return items, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Barcode:     p.Barcode,
		Name:        p.Name,
		CategoryID:  p.CategoryID,
		UnitCost:    p.UnitCost,
		UnitMeasure: p.UnitMeasure,
		CreatedAt:   p.CreatedAt,
	}
}
