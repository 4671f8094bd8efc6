package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntryResponse existencia de un producto en una bodega.
type StockEntryResponse struct {
	ProductID        string    `json:"product_id"`
	WarehouseID      string    `json:"warehouse_id"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
	Available        int64     `json:"available"`
	Location         string    `json:"location,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AdjustStockRequest body para POST /api/stock/adjustments.
// Quantity firmada: positiva suma, negativa resta. Kind acepta
// ADJUSTMENT (default) o RETURN (solo positivo).
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
	Kind        string `json:"kind,omitempty"`
	Reason      string `json:"reason"`
}

// MovementResponse un registro del log de movimientos.
type MovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Kind        string          `json:"kind"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Reason      string          `json:"reason,omitempty"`
	OriginKind  string          `json:"origin_kind"`
	OriginRefID string          `json:"origin_ref_id,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
