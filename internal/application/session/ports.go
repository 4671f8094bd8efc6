package session

import (
	"context"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// ReportLine una línea del reporte de varianzas con datos del producto resueltos.
type ReportLine struct {
	Line    *entity.InventoryLine
	Product *entity.Product
}

// ReportGenerator genera la representación exportable (PDF) del reporte de
// varianzas de una sesión terminada o validada.
type ReportGenerator interface {
	GenerateSessionReport(ctx context.Context, session *entity.InventorySession, warehouse *entity.Warehouse, lines []ReportLine) ([]byte, error)
}
