package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario.
// Solo bodegas activas participan en traslados y sesiones de inventario.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
