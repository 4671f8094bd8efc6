package transfer_test

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
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/transfer"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/testutil"
)

const actor = "user-1"

// newFixture monta el caso de uso sobre el store en memoria con dos bodegas
// activas y dos productos con stock en la bodega origen.
func newFixture(t *testing.T) (*transfer.UseCase, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	store.SeedWarehouse(&entity.Warehouse{ID: "wh-src", Name: "Bodega Central", Active: true})
	store.SeedWarehouse(&entity.Warehouse{ID: "wh-dst", Name: "Bodega Norte", Active: true})
	store.SeedProduct(&entity.Product{ID: "prod-a", SKU: "SKU-A", Name: "Producto A", UnitCost: decimal.NewFromInt(1000)})
	store.SeedProduct(&entity.Product{ID: "prod-b", SKU: "SKU-B", Name: "Producto B", UnitCost: decimal.NewFromInt(500)})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-a", WarehouseID: "wh-src", Quantity: 100})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-b", WarehouseID: "wh-src", Quantity: 20})

	repos := store.Repos()
	uc := transfer.NewUseCase(
		&testutil.TxRunner{Store: store},
		repos.Transfers,
		repos.Products,
		testutil.NewWarehouseRepo(store),
	)
	return uc, store
}

func createTransfer(t *testing.T, uc *transfer.UseCase, lines ...dto.TransferLineRequest) *dto.TransferResponse {
	t.Helper()
	if len(lines) == 0 {
		lines = []dto.TransferLineRequest{
			{ProductID: "prod-a", Quantity: 10},
			{ProductID: "prod-b", Quantity: 5},
		}
	}
	out, err := uc.Create(context.Background(), actor, dto.CreateTransferRequest{
		SourceID:      "wh-src",
		DestinationID: "wh-dst",
		Lines:         lines,
	})
	require.NoError(t, err)
	return out
}

func stockQty(t *testing.T, s *testutil.Store, productID, warehouseID string) int64 {
	t.Helper()
	e, err := s.Repos().Stock.Get(productID, warehouseID)
	require.NoError(t, err)
	return e.Quantity
}

func TestCreateTransferValidations(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, actor, dto.CreateTransferRequest{DestinationID: "wh-dst"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "origen obligatorio")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-src",
		Lines: []dto.TransferLineRequest{{ProductID: "prod-a", Quantity: 1}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "origen y destino distintos")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-dst"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "al menos una línea")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-dst",
		Lines: []dto.TransferLineRequest{{ProductID: "prod-a", Quantity: 0}}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "cantidad >= 1")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-dst",
		Lines: []dto.TransferLineRequest{{ProductID: "prod-x", Quantity: 1}}})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "producto inexistente")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-dst",
		Lines: []dto.TransferLineRequest{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-a", Quantity: 3},
		}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "producto repetido en las líneas")

	_, err = uc.Create(ctx, actor, dto.CreateTransferRequest{SourceID: "wh-src", DestinationID: "wh-x",
		Lines: []dto.TransferLineRequest{{ProductID: "prod-a", Quantity: 1}}})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "bodega inexistente")
}

func TestCreateTransferRejectsInactiveWarehouse(t *testing.T) {
	uc, store := newFixture(t)
	store.SeedWarehouse(&entity.Warehouse{ID: "wh-off", Name: "Cerrada", Active: false})

	_, err := uc.Create(context.Background(), actor, dto.CreateTransferRequest{
		SourceID: "wh-src", DestinationID: "wh-off",
		Lines: []dto.TransferLineRequest{{ProductID: "prod-a", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreateTransferSnapshot(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("TRF-%d-00001", year), out.Reference)
	assert.Equal(t, string(entity.TransferStatusPending), out.Status)
	require.Len(t, out.Lines, 2)

	// El costo unitario queda congelado al crear
	for _, l := range out.Lines {
		if l.ProductID == "prod-a" {
			assert.Equal(t, "1000", l.UnitCost.String())
		}
		assert.Zero(t, l.ReceivedQuantity)
	}

	// Crear no toca el libro
	assert.Equal(t, int64(100), stockQty(t, store, "prod-a", "wh-src"))
	assert.Empty(t, store.Movements)

	// Las referencias son consecutivas
	out2 := createTransfer(t, uc)
	assert.Equal(t, fmt.Sprintf("TRF-%d-00002", year), out2.Reference)
}

func TestShipDebitsSourceAtomically(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc)

	shipped, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusInTransit), shipped.Status)

	assert.Equal(t, int64(90), stockQty(t, store, "prod-a", "wh-src"))
	assert.Equal(t, int64(15), stockQty(t, store, "prod-b", "wh-src"))
	// El destino no se acredita hasta recibir
	assert.Equal(t, int64(0), stockQty(t, store, "prod-a", "wh-dst"))

	require.Len(t, store.Movements, 2)
	for _, m := range store.Movements {
		assert.Equal(t, entity.MovementTypeOUT, m.Kind)
		id, ok := m.Origin.TransferID()
		require.True(t, ok)
		assert.Equal(t, out.ID, id)
		assert.Contains(t, m.Reason, out.Reference)
	}

	// Volver a despachar es transición inválida
	_, err = uc.Ship(context.Background(), actor, out.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestShipInsufficientStockAbortsAllLines(t *testing.T) {
	uc, store := newFixture(t)
	// prod-b solo tiene 20: la segunda línea no alcanza
	out := createTransfer(t, uc,
		dto.TransferLineRequest{ProductID: "prod-a", Quantity: 10},
		dto.TransferLineRequest{ProductID: "prod-b", Quantity: 25},
	)

	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	// Nada se movió: ni siquiera la línea que sí alcanzaba
	assert.Equal(t, int64(100), stockQty(t, store, "prod-a", "wh-src"))
	assert.Equal(t, int64(20), stockQty(t, store, "prod-b", "wh-src"))
	assert.Empty(t, store.Movements)

	// El traslado sigue PENDING y puede reintentarse
	current, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusPending), current.Status)
}

func TestShipRespectsReservedStock(t *testing.T) {
	uc, store := newFixture(t)
	store.SeedStock(&entity.StockEntry{ProductID: "prod-a", WarehouseID: "wh-src", Quantity: 100, ReservedQuantity: 95})
	out := createTransfer(t, uc, dto.TransferLineRequest{ProductID: "prod-a", Quantity: 10})

	_, err := uc.Ship(context.Background(), actor, out.ID)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "lo reservado no se despacha")
}

func TestReceiveFullCompletesTransfer(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc)
	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)

	received, err := uc.Receive(context.Background(), actor, out.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusComplete), received.Status)
	require.NotNil(t, received.CompletedAt)

	assert.Equal(t, int64(10), stockQty(t, store, "prod-a", "wh-dst"))
	assert.Equal(t, int64(5), stockQty(t, store, "prod-b", "wh-dst"))
	for _, l := range received.Lines {
		assert.Equal(t, l.RequestedQuantity, l.ReceivedQuantity)
	}

	// 2 OUT del despacho + 2 IN de la recepción
	require.Len(t, store.Movements, 4)

	// Recibir desde PENDING nunca es válido
	pending := createTransfer(t, uc, dto.TransferLineRequest{ProductID: "prod-a", Quantity: 1})
	_, err = uc.Receive(context.Background(), actor, pending.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestReceivePartialOverwritesAndCompletes(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc,
		dto.TransferLineRequest{ProductID: "prod-a", Quantity: 10},
		dto.TransferLineRequest{ProductID: "prod-b", Quantity: 5},
	)
	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)

	current, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	var lineA, lineB dto.TransferLineResponse
	for _, l := range current.Lines {
		if l.ProductID == "prod-a" {
			lineA = l
		} else {
			lineB = l
		}
	}

	// Primera recepción parcial: 6 de A
	resp, err := uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{{LineID: lineA.ID, Quantity: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusInTransit), resp.Status, "faltan líneas por completar")
	assert.Equal(t, int64(6), stockQty(t, store, "prod-a", "wh-dst"))

	// Segunda llamada sobre la misma línea: REEMPLAZA, no acumula
	resp, err = uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{{LineID: lineA.ID, Quantity: 10}},
	})
	require.NoError(t, err)
	for _, l := range resp.Lines {
		if l.ProductID == "prod-a" {
			assert.Equal(t, int64(10), l.ReceivedQuantity, "la cantidad recibida se sobreescribe")
		}
	}
	// El libro acredita lo enviado en cada llamada (el documento es el que
	// sobreescribe): 6 + 10
	assert.Equal(t, int64(16), stockQty(t, store, "prod-a", "wh-dst"))
	assert.Equal(t, string(entity.TransferStatusInTransit), resp.Status)

	// Completar la línea restante cierra el traslado
	resp, err = uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{{LineID: lineB.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusComplete), resp.Status)
	require.NotNil(t, resp.CompletedAt)
}

func TestReceivePartialValidatesBeforeWriting(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc,
		dto.TransferLineRequest{ProductID: "prod-a", Quantity: 10},
		dto.TransferLineRequest{ProductID: "prod-b", Quantity: 5},
	)
	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)
	movementsAfterShip := len(store.Movements)

	current, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	lineA := current.Lines[0]

	// Cantidad por encima de lo solicitado: rechazada
	_, err = uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{{LineID: lineA.ID, Quantity: lineA.RequestedQuantity + 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// Línea ajena + línea válida: falla todo, sin escritos parciales
	_, err = uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{
			{LineID: lineA.ID, Quantity: 3},
			{LineID: "otra-linea", Quantity: 1},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
		Lines: []dto.ReceivedLineRequest{{LineID: lineA.ID, Quantity: -1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	assert.Equal(t, int64(0), stockQty(t, store, "prod-a", "wh-dst"))
	assert.Len(t, store.Movements, movementsAfterShip, "ninguna recepción rechazada escribe movimientos")
}

func TestCancelPendingDoesNotTouchLedger(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc)

	cancelled, err := uc.Cancel(context.Background(), actor, out.ID, "ya no se necesita")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusCancelled), cancelled.Status)
	assert.Equal(t, int64(100), stockQty(t, store, "prod-a", "wh-src"))
	assert.Empty(t, store.Movements)
}

func TestCancelInTransitRecreditsSource(t *testing.T) {
	uc, store := newFixture(t)
	out := createTransfer(t, uc,
		dto.TransferLineRequest{ProductID: "prod-a", Quantity: 10},
	)
	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)
	require.Equal(t, int64(90), stockQty(t, store, "prod-a", "wh-src"))

	cancelled, err := uc.Cancel(context.Background(), actor, out.ID, "camión averiado")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusCancelled), cancelled.Status)

	// El origen recupera lo despachado; el destino nunca recibió
	assert.Equal(t, int64(100), stockQty(t, store, "prod-a", "wh-src"))
	assert.Equal(t, int64(0), stockQty(t, store, "prod-a", "wh-dst"))

	// 1 OUT del despacho + 1 IN de la re-acreditación
	require.Len(t, store.Movements, 2)
	assert.Equal(t, entity.MovementTypeIN, store.Movements[1].Kind)
	assert.Contains(t, store.Movements[1].Reason, "Cancelación")

	// COMPLETE y CANCELLED son terminales
	_, err = uc.Cancel(context.Background(), actor, out.ID, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	uc, _ := newFixture(t)
	out := createTransfer(t, uc)

	newDate := time.Now().Add(48 * time.Hour)
	notes := "sale el lunes"
	updated, err := uc.Update(context.Background(), out.ID, dto.UpdateTransferRequest{
		Date:  &newDate,
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "sale el lunes", updated.Notes)
	assert.WithinDuration(t, newDate, updated.Date, time.Second)

	_, err = uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)

	_, err = uc.Update(context.Background(), out.ID, dto.UpdateTransferRequest{Notes: &notes})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestTransferRoundTrip(t *testing.T) {
	// Escenario completo: crear → despachar → recibir parcial → completar.
	uc, store := newFixture(t)
	out := createTransfer(t, uc,
		dto.TransferLineRequest{ProductID: "prod-a", Quantity: 40},
		dto.TransferLineRequest{ProductID: "prod-b", Quantity: 20},
	)

	_, err := uc.Ship(context.Background(), actor, out.ID)
	require.NoError(t, err)

	current, err := uc.GetByID(out.ID)
	require.NoError(t, err)

	for _, l := range current.Lines {
		_, err := uc.ReceivePartial(context.Background(), actor, out.ID, dto.ReceivePartialRequest{
			Lines: []dto.ReceivedLineRequest{{LineID: l.ID, Quantity: l.RequestedQuantity}},
		})
		require.NoError(t, err)
	}

	final, err := uc.GetByID(out.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusComplete), final.Status)

	// Conservación: lo que salió del origen entró al destino
	assert.Equal(t, int64(60), stockQty(t, store, "prod-a", "wh-src"))
	assert.Equal(t, int64(40), stockQty(t, store, "prod-a", "wh-dst"))
	assert.Equal(t, int64(0), stockQty(t, store, "prod-b", "wh-src"))
	assert.Equal(t, int64(20), stockQty(t, store, "prod-b", "wh-dst"))
}

func TestListTransfersByStatus(t *testing.T) {
	uc, _ := newFixture(t)
	a := createTransfer(t, uc, dto.TransferLineRequest{ProductID: "prod-a", Quantity: 1})
	createTransfer(t, uc, dto.TransferLineRequest{ProductID: "prod-b", Quantity: 1})

	_, err := uc.Ship(context.Background(), actor, a.ID)
	require.NoError(t, err)

	all, err := uc.List("", 20, 0)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	inTransit, err := uc.List(string(entity.TransferStatusInTransit), 20, 0)
	require.NoError(t, err)
	require.Len(t, inTransit.Items, 1)
	assert.Equal(t, a.ID, inTransit.Items[0].ID)
}
