package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (colaborador externo del
// motor de inventario; aquí solo se consulta existencia, costo y barcode).
type Product struct {
	ID          string
	SKU         string // referencia única
	Barcode     string
	Name        string
	Description string
	CategoryID  string
	UnitCost    decimal.Decimal // costo unitario usado como snapshot en movimientos
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
