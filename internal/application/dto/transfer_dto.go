package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLineRequest una línea solicitada al crear el traslado.
type TransferLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	SourceID      string                `json:"source_warehouse_id"`
	DestinationID string                `json:"destination_warehouse_id"`
	Date          *time.Time            `json:"date,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Lines         []TransferLineRequest `json:"lines"`
}

// UpdateTransferRequest body para PATCH /api/transfers/:id (solo PENDING).
type UpdateTransferRequest struct {
	Date  *time.Time `json:"date,omitempty"`
	Notes *string    `json:"notes,omitempty"`
}

// ReceivedLineRequest cantidad recibida para una línea en recepción parcial.
type ReceivedLineRequest struct {
	LineID   string `json:"line_id"`
	Quantity int64  `json:"quantity"`
}

// ReceivePartialRequest body para POST /api/transfers/:id/receive-partial.
type ReceivePartialRequest struct {
	Lines []ReceivedLineRequest `json:"lines"`
	Notes string                `json:"notes,omitempty"`
}

// CancelTransferRequest body para POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TransferLineResponse una línea del traslado en respuestas.
type TransferLineResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	RequestedQuantity int64           `json:"requested_quantity"`
	ReceivedQuantity  int64           `json:"received_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// TransferResponse representación HTTP de un traslado.
type TransferResponse struct {
	ID            string                 `json:"id"`
	Reference     string                 `json:"reference"`
	SourceID      string                 `json:"source_warehouse_id"`
	DestinationID string                 `json:"destination_warehouse_id"`
	Status        string                 `json:"status"`
	Date          time.Time              `json:"date"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedBy     string                 `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	Lines         []TransferLineResponse `json:"lines,omitempty"`
}

// TransferListResponse listado paginado de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
