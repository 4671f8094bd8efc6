package entity

import "time"

// StockEntry representa la existencia de un producto en una bodega
// (clave producto+bodega, creada de forma perezosa con la primera entrada).
// Invariantes: Quantity >= 0 y 0 <= ReservedQuantity <= Quantity.
type StockEntry struct {
	ProductID        string
	WarehouseID      string
	Quantity         int64
	ReservedQuantity int64
	Location         string // etiqueta de ubicación física (pasillo/zona), opcional
	UpdatedAt        time.Time
}

// Available devuelve la cantidad disponible para despachar
// (existencia menos lo reservado).
func (s *StockEntry) Available() int64 {
	return s.Quantity - s.ReservedQuantity
}

// StockFilter filtros para listar existencias de una bodega
// (usado por el snapshot de sesiones de inventario físico).
type StockFilter struct {
	CategoryID string   // filtra por categoría del producto
	ZonePrefix string   // filtra por prefijo de la etiqueta de ubicación
	ProductIDs []string // filtra por un subconjunto explícito de productos
}

// IsZero indica si el filtro no restringe nada.
func (f StockFilter) IsZero() bool {
	return f.CategoryID == "" && f.ZonePrefix == "" && len(f.ProductIDs) == 0
}
