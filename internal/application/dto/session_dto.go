package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSessionRequest body para POST /api/inventory-sessions.
// Los filtros acotan el snapshot a una categoría, un prefijo de zona
// o un subconjunto explícito de productos.
type CreateSessionRequest struct {
	WarehouseID string   `json:"warehouse_id"`
	CategoryID  string   `json:"category_id,omitempty"`
	ZonePrefix  string   `json:"zone_prefix,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// CountRequest body para POST /api/inventory-sessions/:id/count.
type CountRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// CountByBarcodeRequest body para POST /api/inventory-sessions/:id/count-barcode.
type CountByBarcodeRequest struct {
	Barcode  string `json:"barcode"`
	Quantity int64  `json:"quantity"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// BulkCountRequest body para POST /api/inventory-sessions/:id/bulk-count.
type BulkCountRequest struct {
	Items []CountRequest `json:"items"`
}

// BulkCountError error aislado de un ítem del conteo masivo.
type BulkCountError struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// BulkCountResponse resultado del conteo masivo: los ítems fallidos no
// abortan a los demás.
type BulkCountResponse struct {
	Success int              `json:"success"`
	Errors  []BulkCountError `json:"errors"`
}

// RecountRequest body para POST /api/inventory-sessions/:id/recount.
type RecountRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// ValidateSessionRequest body para POST /api/inventory-sessions/:id/validate.
// ApplyAdjustments por defecto true; ExcludedLineIDs excluye líneas del
// ajuste (no del chequeo de validación).
type ValidateSessionRequest struct {
	Reason           string   `json:"reason,omitempty"`
	ApplyAdjustments *bool    `json:"apply_adjustments,omitempty"`
	ExcludedLineIDs  []string `json:"excluded_line_ids,omitempty"`
}

// CancelSessionRequest body para POST /api/inventory-sessions/:id/cancel.
type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

// InventoryLineResponse una línea de conteo en respuestas.
type InventoryLineResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	TheoreticalQuantity int64           `json:"theoretical_quantity"`
	CountedQuantity     *int64          `json:"counted_quantity,omitempty"`
	RecountedQuantity   *int64          `json:"recounted_quantity,omitempty"`
	Variance            int64           `json:"variance"`
	VarianceValue       decimal.Decimal `json:"variance_value"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	Status              string          `json:"status"`
	NeedsRecount        bool            `json:"needs_recount"`
	Location            string          `json:"location,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}

// SessionResponse representación HTTP de una sesión de inventario.
type SessionResponse struct {
	ID            string                  `json:"id"`
	Reference     string                  `json:"reference"`
	WarehouseID   string                  `json:"warehouse_id"`
	Status        string                  `json:"status"`
	TotalProducts int                     `json:"total_products"`
	CountedLines  int                     `json:"counted_lines"`
	StartedAt     time.Time               `json:"started_at"`
	FinishedAt    *time.Time              `json:"finished_at,omitempty"`
	CreatedBy     string                  `json:"created_by"`
	ValidatedBy   string                  `json:"validated_by,omitempty"`
	ValidatedAt   *time.Time              `json:"validated_at,omitempty"`
	Lines         []InventoryLineResponse `json:"lines,omitempty"`
}

// SessionListResponse listado paginado de sesiones.
type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
