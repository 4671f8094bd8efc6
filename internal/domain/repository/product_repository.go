package repository

import "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"

// ProductRepository define el puerto de consulta del catálogo de productos
// (colaborador externo: el motor solo necesita existencia, costo y barcode).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByBarcode(barcode string) (*entity.Product, error)
	ListByIDs(ids []string) ([]*entity.Product, error)
	List(limit, offset int) ([]*entity.Product, error)
}
