// Package pdf implementa la generación del acta de conteo físico de
// inventario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Referencia sesión  │  Bodega + Fecha               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: productos / contados / con varianza               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Teórico | Contado | Varianza | $   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: varianza valorizada total                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appsession "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/session"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa session.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateSessionReport genera el acta de conteo y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateSessionReport(
	_ context.Context,
	session *entity.InventorySession,
	warehouse *entity.Warehouse,
	lines []appsession.ReportLine,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de Conteo Físico "+session.Reference, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(session, warehouse))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(session, lines))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(lines))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: referencia (izq) y bodega + fecha (der).
func headerRow(session *entity.InventorySession, warehouse *entity.Warehouse) core.Row {
	fecha := session.StartedAt.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New("ACTA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(session.Reference, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 7,
			}),
			text.New("Estado: "+string(session.Status), props.Text{
				Size: 8, Top: 14, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(warehouse.Name, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Inicio: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// summaryRow: conteo de productos y líneas con varianza.
func summaryRow(session *entity.InventorySession, lines []appsession.ReportLine) core.Row {
	withVariance := 0
	for _, l := range lines {
		if l.Line.Status != entity.LineStatusPending && l.Line.Variance() != 0 {
			withVariance++
		}
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Productos en sesión: %d   |   Líneas con varianza: %d",
				session.TotalProducts, withVariance,
			), props.Text{Size: 9, Top: 2}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Teórico", 1, align.Right),
		h("Contado", 1, align.Right),
		h("Varianza", 2, align.Right),
		h("Valorizada", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea de la sesión.
func tableDetailRows(lines []appsession.ReportLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, rl := range lines {
		l := rl.Line
		counted := "—"
		variance := "—"
		valued := "—"
		varianceColor := colorGray
		if l.Status != entity.LineStatusPending {
			counted = fmt.Sprintf("%d", *l.FinalCount())
			v := l.Variance()
			variance = fmt.Sprintf("%+d", v)
			valued = l.VarianceValue().StringFixed(2)
			if v != 0 {
				varianceColor = colorDanger
			}
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(rl.Product.SKU, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(4).Add(text.New(rl.Product.Name, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.TheoreticalQuantity), props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
			col.New(1).Add(text.New(counted, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
			col.New(2).Add(text.New(variance, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1, Color: varianceColor,
			})),
			col.New(2).Add(text.New(valued, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
		))
	}
	return result
}

// totalsRow: varianza valorizada acumulada de toda la sesión.
func totalsRow(lines []appsession.ReportLine) core.Row {
	total := decimal.Zero
	for _, rl := range lines {
		if rl.Line.Status != entity.LineStatusPending {
			total = total.Add(rl.Line.VarianceValue())
		}
	}
	return row.New(12).Add(
		col.New(8).Add(
			text.New("VARIANZA VALORIZADA TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 3, Right: 2,
			}),
		),
		col.New(4).Add(
			text.New(total.StringFixed(2), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 3, Right: 1,
			}),
		),
	)
}
