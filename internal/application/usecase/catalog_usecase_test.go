package usecase_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/usecase"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/testutil"
)

func TestWarehouseCreateAndSetActive(t *testing.T) {
	store := testutil.NewStore()
	uc := usecase.NewWarehouseUseCase(testutil.NewWarehouseRepo(store))

	_, err := uc.Create(dto.CreateWarehouseRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	created, err := uc.Create(dto.CreateWarehouseRequest{Name: "Bodega Sur", Address: "Cra 10 #20-30"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active, "las bodegas nacen activas")

	updated, err := uc.SetActive(created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = uc.SetActive("wh-x", true)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, err := uc.List(10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductCreateValidations(t *testing.T) {
	store := testutil.NewStore()
	uc := usecase.NewProductUseCase(store.Repos().Products)

	_, err := uc.Create(dto.CreateProductRequest{SKU: "SKU-1"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "nombre obligatorio")

	_, err = uc.Create(dto.CreateProductRequest{SKU: "SKU-1", Name: "Tornillo", UnitCost: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "costo negativo")

	created, err := uc.Create(dto.CreateProductRequest{
		SKU: "SKU-1", Name: "Tornillo", Barcode: "770100001", UnitCost: decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// SKU duplicado
	_, err = uc.Create(dto.CreateProductRequest{SKU: "SKU-1", Name: "Otro", UnitCost: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := uc.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tornillo", got.Name)

	_, err = uc.GetByID("prod-x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
