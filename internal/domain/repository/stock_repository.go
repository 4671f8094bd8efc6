package repository

import "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar existencias
// por producto+bodega. Dentro de transacciones garantiza consistencia
// vía GetForUpdate (SELECT FOR UPDATE).
type StockRepository interface {
	Get(productID, warehouseID string) (*entity.StockEntry, error)
	// GetForUpdate bloquea la fila para update. Si no existe devuelve una
	// entrada en cero (se materializa con el primer Upsert).
	GetForUpdate(productID, warehouseID string) (*entity.StockEntry, error)
	Upsert(entry *entity.StockEntry) error
	// ListByWarehouse lista existencias de una bodega aplicando el filtro
	// (categoría, prefijo de zona, subconjunto de productos).
	ListByWarehouse(warehouseID string, filter entity.StockFilter) ([]*entity.StockEntry, error)
	ListByProduct(productID string) ([]*entity.StockEntry, error)
}
