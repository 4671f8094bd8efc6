package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/session"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/testutil"
)

const actor = "user-1"

// stubReports ReportGenerator que devuelve un contenido fijo.
type stubReports struct{ calls int }

func (s *stubReports) GenerateSessionReport(_ context.Context, _ *entity.InventorySession, _ *entity.Warehouse, _ []session.ReportLine) ([]byte, error) {
	s.calls++
	return []byte("%PDF-stub"), nil
}

func newFixture(t *testing.T) (*session.UseCase, *testutil.Store, *stubReports) {
	t.Helper()
	store := testutil.NewStore()
	store.SeedWarehouse(&entity.Warehouse{ID: "wh-1", Name: "Bodega Central", Active: true})
	store.SeedProduct(&entity.Product{ID: "prod-a", SKU: "SKU-A", Name: "Producto A", Barcode: "750100001", CategoryID: "cat-1", UnitCost: decimal.NewFromInt(1000)})
	store.SeedProduct(&entity.Product{ID: "prod-b", SKU: "SKU-B", Name: "Producto B", Barcode: "750100002", CategoryID: "cat-2", UnitCost: decimal.NewFromInt(500)})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 40, Location: "A-01-02"})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-b", WarehouseID: "wh-1", Quantity: 20, Location: "B-03-01"})

	reports := &stubReports{}
	repos := store.Repos()
	uc := session.NewUseCase(
		&testutil.TxRunner{Store: store},
		repos.Sessions,
		repos.Products,
		testutil.NewWarehouseRepo(store),
		reports,
	)
	return uc, store, reports
}

func createSession(t *testing.T, uc *session.UseCase) *dto.SessionResponse {
	t.Helper()
	out, err := uc.Create(context.Background(), actor, dto.CreateSessionRequest{WarehouseID: "wh-1"})
	require.NoError(t, err)
	return out
}

func countAll(t *testing.T, uc *session.UseCase, sessionID string, qtyA, qtyB int64) {
	t.Helper()
	ctx := context.Background()
	_, err := uc.Count(ctx, actor, sessionID, dto.CountRequest{ProductID: "prod-a", Quantity: qtyA})
	require.NoError(t, err)
	_, err = uc.Count(ctx, actor, sessionID, dto.CountRequest{ProductID: "prod-b", Quantity: qtyB})
	require.NoError(t, err)
}

func TestCreateSessionSnapshot(t *testing.T) {
	uc, store, _ := newFixture(t)
	out := createSession(t, uc)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-00001", year), out.Reference)
	assert.Equal(t, string(entity.SessionStatusInProgress), out.Status)
	assert.Equal(t, 2, out.TotalProducts)
	assert.Zero(t, out.CountedLines)
	require.Len(t, out.Lines, 2)

	// Las líneas congelan el teórico del libro y el costo del catálogo
	byProduct := map[string]dto.InventoryLineResponse{}
	for _, l := range out.Lines {
		byProduct[l.ProductID] = l
		assert.Equal(t, string(entity.LineStatusPending), l.Status)
		assert.Nil(t, l.CountedQuantity)
	}
	assert.Equal(t, int64(40), byProduct["prod-a"].TheoreticalQuantity)
	assert.Equal(t, "1000", byProduct["prod-a"].UnitCost.String())
	assert.Equal(t, "A-01-02", byProduct["prod-a"].Location)
	assert.Equal(t, int64(20), byProduct["prod-b"].TheoreticalQuantity)

	// El snapshot no toca el libro
	assert.Empty(t, store.Movements)
}

func TestCreateSessionValidations(t *testing.T) {
	uc, store, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, actor, dto.CreateSessionRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "bodega obligatoria")

	_, err = uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	store.SeedWarehouse(&entity.Warehouse{ID: "wh-off", Name: "Cerrada", Active: false})
	_, err = uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-off"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// Filtro que no coincide con ninguna existencia
	_, err = uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1", CategoryID: "cat-x"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Empty(t, store.Sessions, "un snapshot vacío no deja sesión creada")
}

func TestCreateSessionFilters(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1", CategoryID: "cat-1"})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "prod-a", out.Lines[0].ProductID)

	// Solo una sesión activa por bodega: cerramos la anterior primero
	_, err = uc.Cancel(ctx, out.ID, "")
	require.NoError(t, err)

	out, err = uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1", ZonePrefix: "B-"})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "prod-b", out.Lines[0].ProductID)
}

func TestCreateSessionRejectsSecondActive(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	first := createSession(t, uc)

	_, err := uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// PAUSED también cuenta como activa
	_, err = uc.Pause(ctx, first.ID)
	require.NoError(t, err)
	_, err = uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Cancelada deja de bloquear
	_, err = uc.Cancel(ctx, first.ID, "reinicio")
	require.NoError(t, err)
	second, err := uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1"})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-00002", time.Now().Year()), second.Reference)
}

func TestCountUpdatesLineOnly(t *testing.T) {
	uc, store, _ := newFixture(t)
	out := createSession(t, uc)

	line, err := uc.Count(context.Background(), actor, out.ID, dto.CountRequest{
		ProductID: "prod-a", Quantity: 38, Location: "A-01-03", Notes: "caja abierta",
	})
	require.NoError(t, err)
	require.NotNil(t, line.CountedQuantity)
	assert.Equal(t, int64(38), *line.CountedQuantity)
	assert.Equal(t, int64(-2), line.Variance)
	assert.False(t, line.NeedsRecount, "2/40 = 5% no requiere reconteo")
	assert.Equal(t, string(entity.LineStatusCounted), line.Status)
	assert.Equal(t, "A-01-03", line.Location)

	// El conteo no mueve el libro
	e, err := store.Repos().Stock.Get("prod-a", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), e.Quantity)
	assert.Empty(t, store.Movements)

	// El progreso se refleja en la sesión
	got, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CountedLines)
}

func TestCountFlagsLargeVariance(t *testing.T) {
	uc, _, _ := newFixture(t)
	out := createSession(t, uc)

	// 10/40 = 25% de varianza: requiere reconteo
	line, err := uc.Count(context.Background(), actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 30})
	require.NoError(t, err)
	assert.True(t, line.NeedsRecount)
	assert.Equal(t, string(entity.LineStatusVariance), line.Status)
}

func TestCountRejectedOutsideInProgress(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	_, err := uc.Pause(ctx, out.ID)
	require.NoError(t, err)

	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 40})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = uc.Resume(ctx, out.ID)
	require.NoError(t, err)
	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 40})
	assert.NoError(t, err)
}

func TestCountUnknownProduct(t *testing.T) {
	uc, _, _ := newFixture(t)
	out := createSession(t, uc)

	_, err := uc.Count(context.Background(), actor, out.ID, dto.CountRequest{ProductID: "prod-x", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "producto sin línea en la sesión")
}

func TestCountByBarcode(t *testing.T) {
	uc, _, _ := newFixture(t)
	out := createSession(t, uc)
	ctx := context.Background()

	line, err := uc.CountByBarcode(ctx, actor, out.ID, dto.CountByBarcodeRequest{Barcode: "750100002", Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, "prod-b", line.ProductID)
	assert.Equal(t, string(entity.LineStatusValidated), line.Status)

	_, err = uc.CountByBarcode(ctx, actor, out.ID, dto.CountByBarcodeRequest{Barcode: "000000000", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBulkCountIsolatesFailures(t *testing.T) {
	uc, _, _ := newFixture(t)
	out := createSession(t, uc)

	resp, err := uc.BulkCount(context.Background(), actor, out.ID, dto.BulkCountRequest{
		Items: []dto.CountRequest{
			{ProductID: "prod-a", Quantity: 40},
			{ProductID: "prod-x", Quantity: 3}, // sin línea: falla solo este
			{ProductID: "prod-b", Quantity: 19},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "prod-x", resp.Errors[0].ProductID)

	// Los ítems buenos quedaron aplicados a pesar del fallo intermedio
	got, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CountedLines)
}

func TestRecountAuthoritative(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	// Reconteo sin conteo previo: rechazado
	_, err := uc.Recount(ctx, actor, out.ID, dto.RecountRequest{ProductID: "prod-a", Quantity: 30})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 30})
	require.NoError(t, err)

	// El reconteo confirma la varianza grande y aun así limpia el flag
	line, err := uc.Recount(ctx, actor, out.ID, dto.RecountRequest{ProductID: "prod-a", Quantity: 29})
	require.NoError(t, err)
	assert.False(t, line.NeedsRecount)
	require.NotNil(t, line.RecountedQuantity)
	assert.Equal(t, int64(29), *line.RecountedQuantity)
	assert.Equal(t, int64(-11), line.Variance)
	assert.Equal(t, string(entity.LineStatusCounted), line.Status)
}

func TestFinishRequiresAllCounted(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	_, err := uc.Finish(ctx, out.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState), "quedan líneas PENDING")

	countAll(t, uc, out.ID, 40, 20)
	finished, err := uc.Finish(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusFinished), finished.Status)
	require.NotNil(t, finished.FinishedAt)

	// FINISHED ya no admite conteos
	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestValidateAppliesAdjustments(t *testing.T) {
	uc, store, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	// prod-a: 40 → 38 (faltante), prod-b: 20 → 20 (sin varianza)
	countAll(t, uc, out.ID, 38, 20)

	validated, err := uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{Reason: "conteo trimestral"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusValidated), validated.Status)
	assert.Equal(t, actor, validated.ValidatedBy)
	require.NotNil(t, validated.ValidatedAt)
	require.NotNil(t, validated.FinishedAt, "validar sin Finish fija el cierre")
	for _, l := range validated.Lines {
		assert.Equal(t, string(entity.LineStatusValidated), l.Status)
	}

	// El libro quedó alineado con el conteo físico
	e, err := store.Repos().Stock.Get("prod-a", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, int64(38), e.Quantity)

	// Solo la línea con varianza genera movimiento
	require.Len(t, store.Movements, 1)
	m := store.Movements[0]
	assert.Equal(t, entity.MovementTypeADJUSTMENT, m.Kind)
	assert.Equal(t, int64(2), m.Quantity, "magnitud positiva en el log")
	assert.Equal(t, "prod-a", m.ProductID)
	id, ok := m.Origin.SessionID()
	require.True(t, ok)
	assert.Equal(t, out.ID, id)
	assert.Contains(t, m.Reason, out.Reference)
	assert.Contains(t, m.Reason, "(-2)")
	assert.Contains(t, m.Reason, "conteo trimestral")

	// VALIDATED es terminal
	_, err = uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestValidateBlockedByPendingAndRecount(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	// Una línea contada, otra PENDING: bloqueada
	_, err := uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 40})
	require.NoError(t, err)
	_, err = uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	// Línea con reconteo pendiente: bloqueada aunque esté excluida del ajuste
	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-b", Quantity: 5})
	require.NoError(t, err)
	got, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	var flaggedID string
	for _, l := range got.Lines {
		if l.NeedsRecount {
			flaggedID = l.ID
		}
	}
	require.NotEmpty(t, flaggedID)

	_, err = uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{ExcludedLineIDs: []string{flaggedID}})
	assert.True(t, errors.Is(err, domain.ErrInvalidState), "la exclusión no exime del chequeo")

	// El reconteo desbloquea
	_, err = uc.Recount(ctx, actor, out.ID, dto.RecountRequest{ProductID: "prod-b", Quantity: 5})
	require.NoError(t, err)
	_, err = uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{})
	assert.NoError(t, err)
}

func TestValidateExcludedLinesSkipAdjustment(t *testing.T) {
	uc, store, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	// Ambas con varianza leve
	countAll(t, uc, out.ID, 38, 19)
	got, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	var lineB string
	for _, l := range got.Lines {
		if l.ProductID == "prod-b" {
			lineB = l.ID
		}
	}

	_, err = uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{ExcludedLineIDs: []string{lineB}})
	require.NoError(t, err)

	// prod-a ajustado, prod-b intacto
	a, _ := store.Repos().Stock.Get("prod-a", "wh-1")
	b, _ := store.Repos().Stock.Get("prod-b", "wh-1")
	assert.Equal(t, int64(38), a.Quantity)
	assert.Equal(t, int64(20), b.Quantity)
	require.Len(t, store.Movements, 1)
	assert.Equal(t, "prod-a", store.Movements[0].ProductID)
}

func TestValidateWithoutAdjustments(t *testing.T) {
	uc, store, _ := newFixture(t)
	out := createSession(t, uc)
	countAll(t, uc, out.ID, 38, 19)

	off := false
	validated, err := uc.Validate(context.Background(), actor, out.ID, dto.ValidateSessionRequest{ApplyAdjustments: &off})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusValidated), validated.Status)

	// La sesión cierra pero el libro no se toca
	e, _ := store.Repos().Stock.Get("prod-a", "wh-1")
	assert.Equal(t, int64(40), e.Quantity)
	assert.Empty(t, store.Movements)
}

func TestCancelSessionLeavesLedgerUntouched(t *testing.T) {
	uc, store, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)
	countAll(t, uc, out.ID, 10, 2)

	cancelled, err := uc.Cancel(ctx, out.ID, "bodega inundada")
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusCancelled), cancelled.Status)

	e, _ := store.Repos().Stock.Get("prod-a", "wh-1")
	assert.Equal(t, int64(40), e.Quantity)
	assert.Empty(t, store.Movements)

	// FINISHED ya no puede cancelarse
	second, err := uc.Create(ctx, actor, dto.CreateSessionRequest{WarehouseID: "wh-1"})
	require.NoError(t, err)
	countAll(t, uc, second.ID, 40, 20)
	_, err = uc.Finish(ctx, second.ID)
	require.NoError(t, err)
	_, err = uc.Cancel(ctx, second.ID, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestReportRequiresFinishedOrValidated(t *testing.T) {
	uc, _, reports := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	_, err := uc.Report(ctx, out.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Zero(t, reports.calls)

	countAll(t, uc, out.ID, 40, 20)
	_, err = uc.Finish(ctx, out.ID)
	require.NoError(t, err)

	pdf, err := uc.Report(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stub"), pdf)
	assert.Equal(t, 1, reports.calls)

	_, err = uc.Report(ctx, "ses-x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSessionRoundTrip(t *testing.T) {
	// Ciclo completo: crear → contar (con varianza grande) → recontar →
	// pausar/reanudar → cerrar → validar → libro conciliado.
	uc, store, _ := newFixture(t)
	ctx := context.Background()
	out := createSession(t, uc)

	_, err := uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-a", Quantity: 25})
	require.NoError(t, err)
	_, err = uc.Recount(ctx, actor, out.ID, dto.RecountRequest{ProductID: "prod-a", Quantity: 26})
	require.NoError(t, err)

	_, err = uc.Pause(ctx, out.ID)
	require.NoError(t, err)
	_, err = uc.Resume(ctx, out.ID)
	require.NoError(t, err)

	_, err = uc.Count(ctx, actor, out.ID, dto.CountRequest{ProductID: "prod-b", Quantity: 24})
	require.NoError(t, err)
	_, err = uc.Recount(ctx, actor, out.ID, dto.RecountRequest{ProductID: "prod-b", Quantity: 24})
	require.NoError(t, err)

	_, err = uc.Finish(ctx, out.ID)
	require.NoError(t, err)
	validated, err := uc.Validate(ctx, actor, out.ID, dto.ValidateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusValidated), validated.Status)

	// El reconteo manda: 26 y 24
	a, _ := store.Repos().Stock.Get("prod-a", "wh-1")
	b, _ := store.Repos().Stock.Get("prod-b", "wh-1")
	assert.Equal(t, int64(26), a.Quantity)
	assert.Equal(t, int64(24), b.Quantity)

	// Faltante de 14 y sobrante de 4, ambos como ADJUSTMENT
	require.Len(t, store.Movements, 2)
	for _, m := range store.Movements {
		assert.Equal(t, entity.MovementTypeADJUSTMENT, m.Kind)
	}
}

func TestListSessions(t *testing.T) {
	uc, _, _ := newFixture(t)
	ctx := context.Background()
	first := createSession(t, uc)
	_, err := uc.Cancel(ctx, first.ID, "")
	require.NoError(t, err)
	createSession(t, uc)

	list, err := uc.List(10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 10, list.Page.Limit)
}
