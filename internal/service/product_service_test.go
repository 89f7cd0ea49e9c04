package service

import (
	"fmt"
	"testing"

	"go-priceledger/internal/model"
	"go-priceledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.PriceHistoryEntry{}, &model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newLedgerService(t *testing.T) (ProductLedgerService, *gorm.DB) {
	db := setupTestDB(t, t.Name())
	repo := repository.NewProductRepo(db)
	return NewProductLedgerService(repo, nil), db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateSeedsBaselineHistory(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{
		Name:             "Test Laddu",
		UnitOfMeasure:    model.UnitKG,
		SellPrice:        dec("500.00"),
		InitialCostPrice: dec("300.00"),
	})
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, product.ID)
	require.Equal(t, "Test Laddu", product.Name)
	require.True(t, product.SellPrice.Equal(dec("500.00")))
	require.True(t, product.IsActive)

	require.Len(t, product.PriceHistory, 1)
	require.True(t, product.PriceHistory[0].CostPrice.Equal(dec("300.00")))
	require.True(t, product.CurrentCostPrice().Equal(dec("300.00")))
	require.True(t, product.Margin().Equal(dec("200.00")))
}

func TestCreateZeroCostStillWritesBaseline(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{
		Name:      "Free Sample",
		SellPrice: dec("10"),
	})
	require.NoError(t, err)

	require.Len(t, product.PriceHistory, 1)
	require.True(t, product.PriceHistory[0].CostPrice.IsZero())
	require.Equal(t, model.UnitKG, product.UnitOfMeasure)
}

func TestCreateRejectsNegativePrices(t *testing.T) {
	svc, db := newLedgerService(t)

	cases := []struct {
		field string
		req   CreateProductRequest
	}{
		{"sell_price", CreateProductRequest{Name: "Bad", SellPrice: dec("-1")}},
		{"initial_cost_price", CreateProductRequest{Name: "Bad", SellPrice: dec("1"), InitialCostPrice: dec("-0.01")}},
		{"current_stock", CreateProductRequest{Name: "Bad", SellPrice: dec("1"), CurrentStock: dec("-5")}},
	}

	for _, tc := range cases {
		_, err := svc.Create(&tc.req)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, "field %s", tc.field)
		require.Equal(t, tc.field, validationErr.Field)
	}

	// Nothing persisted for rejected requests
	var count int64
	require.NoError(t, db.Model(&model.Product{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateRejectsMissingName(t *testing.T) {
	svc, _ := newLedgerService(t)

	_, err := svc.Create(&CreateProductRequest{SellPrice: dec("1")})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestFindFiltersInactive(t *testing.T) {
	svc, _ := newLedgerService(t)

	inactive := false
	_, err := svc.Create(&CreateProductRequest{Name: "Active Laddu", SellPrice: dec("100.00")})
	require.NoError(t, err)
	_, err = svc.Create(&CreateProductRequest{Name: "Inactive Laddu", SellPrice: dec("100.00"), IsActive: &inactive})
	require.NoError(t, err)

	activeOnly, err := svc.Find(true)
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	require.Equal(t, "Active Laddu", activeOnly[0].Name)
	require.Len(t, activeOnly[0].PriceHistory, 1)

	all, err := svc.Find(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUpdatePricesSellThenCost(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{
		Name:             "Volatility Laddu",
		SellPrice:        dec("100"),
		InitialCostPrice: dec("50"),
	})
	require.NoError(t, err)

	// Sell price only: no history implication
	sell := dec("120")
	updated, err := svc.UpdatePrices(product.ID, &sell, nil)
	require.NoError(t, err)
	require.True(t, updated.SellPrice.Equal(dec("120")))
	require.Len(t, updated.PriceHistory, 1)

	// Cost change: one new entry, newest first
	cost := dec("60")
	updated, err = svc.UpdatePrices(product.ID, nil, &cost)
	require.NoError(t, err)
	require.Len(t, updated.PriceHistory, 2)
	require.True(t, updated.CurrentCostPrice().Equal(dec("60")))
	require.True(t, updated.PriceHistory[0].CostPrice.Equal(dec("60")))
	require.True(t, updated.PriceHistory[1].CostPrice.Equal(dec("50")))
}

func TestUpdatePricesIdempotentCost(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{
		Name:             "Stable Laddu",
		SellPrice:        dec("100"),
		InitialCostPrice: dec("50"),
	})
	require.NoError(t, err)

	// Same cost, different scale: still a no-op
	same := dec("50.00")
	for i := 0; i < 3; i++ {
		updated, err := svc.UpdatePrices(product.ID, nil, &same)
		require.NoError(t, err)
		require.Len(t, updated.PriceHistory, 1)
	}
}

func TestUpdatePricesNoopReturnsState(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{
		Name:             "Lazy Laddu",
		SellPrice:        dec("75"),
		InitialCostPrice: dec("25"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePrices(product.ID, nil, nil)
	require.NoError(t, err)
	require.True(t, updated.SellPrice.Equal(dec("75")))
	require.Len(t, updated.PriceHistory, 1)
}

func TestUpdatePricesRejectsNegatives(t *testing.T) {
	svc, _ := newLedgerService(t)

	product, err := svc.Create(&CreateProductRequest{Name: "Laddu", SellPrice: dec("10")})
	require.NoError(t, err)

	bad := dec("-10")
	_, err = svc.UpdatePrices(product.ID, &bad, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "new_sell_price", validationErr.Field)

	_, err = svc.UpdatePrices(product.ID, nil, &bad)
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "new_cost_price", validationErr.Field)
}

func TestUpdatePricesUnknownProduct(t *testing.T) {
	svc, db := newLedgerService(t)

	cost := dec("10")
	_, err := svc.UpdatePrices(uuid.New(), nil, &cost)
	require.ErrorIs(t, err, ErrProductNotFound)

	var historyCount int64
	require.NoError(t, db.Model(&model.PriceHistoryEntry{}).Count(&historyCount).Error)
	require.Zero(t, historyCount)
}
