package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/testutil"
)

func delta(qty int64, kind entity.MovementKind) ledger.Delta {
	return ledger.Delta{
		ProductID:   "prod-1",
		WarehouseID: "wh-1",
		Quantity:    qty,
		Kind:        kind,
		UnitCost:    decimal.NewFromInt(100),
		Reason:      "test",
		Origin:      entity.OriginManual(),
		ActorID:     "user-1",
		Now:         time.Now(),
	}
}

func TestApplyDeltaRejectsZeroAndUnknownKind(t *testing.T) {
	store := testutil.NewStore()
	r := store.Repos()

	_, err := ledger.ApplyDelta(r, delta(0, entity.MovementTypeIN))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = ledger.ApplyDelta(r, delta(5, entity.MovementKind("VENTA")))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	assert.Empty(t, store.Movements, "un delta rechazado no escribe movimientos")
}

func TestApplyDeltaCreatesEntryAndMovement(t *testing.T) {
	store := testutil.NewStore()
	r := store.Repos()

	// Entrada sobre una existencia que aún no existe en el libro
	entry, err := ledger.ApplyDelta(r, delta(25, entity.MovementTypeIN))
	require.NoError(t, err)
	assert.Equal(t, int64(25), entry.Quantity)

	require.Len(t, store.Movements, 1)
	m := store.Movements[0]
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, entity.MovementTypeIN, m.Kind)
	assert.Equal(t, int64(25), m.Quantity)
	assert.Equal(t, "2500", m.TotalCost.String())
	assert.Equal(t, entity.OriginKindManual, m.Origin.Kind())
}

func TestApplyDeltaNegativeWritesPositiveMagnitude(t *testing.T) {
	store := testutil.NewStore()
	store.SeedStock(&entity.StockEntry{ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 50})
	r := store.Repos()

	entry, err := ledger.ApplyDelta(r, delta(-20, entity.MovementTypeOUT))
	require.NoError(t, err)
	assert.Equal(t, int64(30), entry.Quantity)

	require.Len(t, store.Movements, 1)
	assert.Equal(t, int64(20), store.Movements[0].Quantity, "el log guarda la magnitud, no el signo")
	assert.Equal(t, "2000", store.Movements[0].TotalCost.String())
}

func TestApplyDeltaRejectsNegativeResult(t *testing.T) {
	store := testutil.NewStore()
	store.SeedStock(&entity.StockEntry{ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 10})
	r := store.Repos()

	_, err := ledger.ApplyDelta(r, delta(-11, entity.MovementTypeOUT))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	// Nada quedó escrito
	e, _ := r.Stock.Get("prod-1", "wh-1")
	assert.Equal(t, int64(10), e.Quantity)
	assert.Empty(t, store.Movements)
}

func TestApplyDeltaRespectsReserved(t *testing.T) {
	store := testutil.NewStore()
	store.SeedStock(&entity.StockEntry{
		ProductID: "prod-1", WarehouseID: "wh-1",
		Quantity: 10, ReservedQuantity: 4,
	})
	r := store.Repos()

	// Quedarían 3 < 4 reservadas: rechazado aunque la cantidad no sea negativa
	_, err := ledger.ApplyDelta(r, delta(-7, entity.MovementTypeOUT))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "disponible 6")

	// Hasta lo disponible sí pasa
	entry, err := ledger.ApplyDelta(r, delta(-6, entity.MovementTypeOUT))
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.Quantity)
}
