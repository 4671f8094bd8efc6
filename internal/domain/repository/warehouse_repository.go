package repository

import "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"

// WarehouseRepository define el puerto de consulta del registro de bodegas.
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	Update(warehouse *entity.Warehouse) error
	List(limit, offset int) ([]*entity.Warehouse, error)
}
