package stock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/stock"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/testutil"
)

const actor = "user-1"

func newFixture(t *testing.T) (*stock.UseCase, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	store.SeedProduct(&entity.Product{ID: "prod-a", SKU: "SKU-A", Name: "Producto A", UnitCost: decimal.NewFromInt(300)})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 50, Location: "A-02-01"})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-a", WarehouseID: "wh-2", Quantity: 8})

	repos := store.Repos()
	uc := stock.NewUseCase(&testutil.TxRunner{Store: store}, repos.Stock, repos.Movements, repos.Products)
	return uc, store
}

func TestAdjustValidations(t *testing.T) {
	uc, store := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.AdjustStockRequest
		want error
	}{
		{"sin producto", dto.AdjustStockRequest{WarehouseID: "wh-1", Quantity: 1, Reason: "x"}, domain.ErrInvalidInput},
		{"sin bodega", dto.AdjustStockRequest{ProductID: "prod-a", Quantity: 1, Reason: "x"}, domain.ErrInvalidInput},
		{"cantidad cero", dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 0, Reason: "x"}, domain.ErrInvalidInput},
		{"sin motivo", dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 1}, domain.ErrInvalidInput},
		{"tipo desconocido", dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 1, Kind: "SALE", Reason: "x"}, domain.ErrInvalidInput},
		{"devolución negativa", dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: -3, Kind: "RETURN", Reason: "x"}, domain.ErrInvalidInput},
		{"producto inexistente", dto.AdjustStockRequest{ProductID: "prod-x", WarehouseID: "wh-1", Quantity: 1, Reason: "x"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Adjust(ctx, actor, tc.in)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
	assert.Empty(t, store.Movements, "un ajuste rechazado no escribe movimientos")
}

func TestAdjustWritesLedgerAndLog(t *testing.T) {
	uc, store := newFixture(t)

	entry, err := uc.Adjust(context.Background(), actor, dto.AdjustStockRequest{
		ProductID: "prod-a", WarehouseID: "wh-1", Quantity: -5, Reason: "merma por daño",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45), entry.Quantity)
	assert.Equal(t, int64(45), entry.Available)

	require.Len(t, store.Movements, 1)
	m := store.Movements[0]
	assert.Equal(t, entity.MovementTypeADJUSTMENT, m.Kind)
	assert.Equal(t, int64(5), m.Quantity)
	assert.Equal(t, "1500", m.TotalCost.String(), "magnitud por costo unitario del catálogo")
	assert.Equal(t, entity.OriginKindManual, m.Origin.Kind())
	assert.Equal(t, "merma por daño", m.Reason)
	assert.Equal(t, actor, m.CreatedBy)
}

func TestAdjustReturnAddsStock(t *testing.T) {
	uc, store := newFixture(t)

	entry, err := uc.Adjust(context.Background(), actor, dto.AdjustStockRequest{
		ProductID: "prod-a", WarehouseID: "wh-2", Quantity: 2, Kind: "RETURN", Reason: "devolución cliente",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.Quantity)
	require.Len(t, store.Movements, 1)
	assert.Equal(t, entity.MovementTypeRETURN, store.Movements[0].Kind)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	uc, store := newFixture(t)

	_, err := uc.Adjust(context.Background(), actor, dto.AdjustStockRequest{
		ProductID: "prod-a", WarehouseID: "wh-2", Quantity: -9, Reason: "error de digitación",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	e, _ := store.Repos().Stock.Get("prod-a", "wh-2")
	assert.Equal(t, int64(8), e.Quantity)
	assert.Empty(t, store.Movements)
}

func TestGetWarehouseStock(t *testing.T) {
	uc, store := newFixture(t)
	store.SeedProduct(&entity.Product{ID: "prod-b", SKU: "SKU-B", Name: "Producto B", CategoryID: "cat-1", UnitCost: decimal.NewFromInt(100)})
	store.SeedStock(&entity.StockEntry{ProductID: "prod-b", WarehouseID: "wh-1", Quantity: 12, ReservedQuantity: 2, Location: "B-01-01"})

	all, err := uc.GetWarehouseStock("wh-1", entity.StockFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := uc.GetWarehouseStock("wh-1", entity.StockFilter{CategoryID: "cat-1"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "prod-b", filtered[0].ProductID)
	assert.Equal(t, int64(10), filtered[0].Available, "disponible descuenta lo reservado")

	byZone, err := uc.GetWarehouseStock("wh-1", entity.StockFilter{ZonePrefix: "A-"})
	require.NoError(t, err)
	require.Len(t, byZone, 1)
	assert.Equal(t, "prod-a", byZone[0].ProductID)
}

func TestGetProductStock(t *testing.T) {
	uc, _ := newFixture(t)

	entries, err := uc.GetProductStock("prod-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "wh-1", entries[0].WarehouseID)
	assert.Equal(t, "wh-2", entries[1].WarehouseID)
}

func TestListMovements(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	// Sin filtro: rechazado
	_, err := uc.ListMovements("", "", nil, nil, 10, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.Adjust(ctx, actor, dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-1", Quantity: 3, Reason: "hallazgo"})
	require.NoError(t, err)
	_, err = uc.Adjust(ctx, actor, dto.AdjustStockRequest{ProductID: "prod-a", WarehouseID: "wh-2", Quantity: 1, Reason: "hallazgo"})
	require.NoError(t, err)

	byProduct, err := uc.ListMovements("prod-a", "", nil, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byProduct.Items, 2)
	assert.Equal(t, string(entity.OriginKindManual), byProduct.Items[0].OriginKind)

	byWarehouse, err := uc.ListMovements("", "wh-2", nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, byWarehouse.Items, 1)
	assert.Equal(t, "wh-2", byWarehouse.Items[0].WarehouseID)

	// Rango de fechas que excluye todo
	past := time.Now().Add(-time.Hour)
	old, err := uc.ListMovements("prod-a", "", nil, &past, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, old.Items)
}
