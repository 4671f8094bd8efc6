package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// WarehouseResponse representación HTTP de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
}

// ProductResponse representación HTTP de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode,omitempty"`
	Name        string          `json:"name"`
	CategoryID  string          `json:"category_id,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
