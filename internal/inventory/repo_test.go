package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:inv_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  base_price NUMERIC NOT NULL DEFAULT 0,
  new_price NUMERIC,
  used_price NUMERIC,
  physical_sim_price NUMERIC,
  esim_price NUMERIC,
  product_model_id TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	units := `
CREATE TABLE IF NOT EXISTS inventory_units (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  imei TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'in_stock',
  condition TEXT NOT NULL,
  sim_type TEXT,
  selling_price NUMERIC,
  purchase_cost NUMERIC,
  sale_id TEXT,
  customer_id TEXT,
  sold_at DATETIME,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(units).Error)
	return conn
}

func seedUnit(t *testing.T, conn *gorm.DB, productID uuid.UUID, imei string, status enums.UnitStatus) models.InventoryUnit {
	t.Helper()
	unit := models.InventoryUnit{
		ID:        uuid.New(),
		ProductID: productID,
		IMEI:      imei,
		Status:    status,
		Condition: enums.UnitConditionUsed,
	}
	require.NoError(t, conn.Create(&unit).Error)
	return unit
}

func TestClaimMarksUnitsSold(t *testing.T) {
	t.Parallel()

	conn := setupInventoryTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	saleID := uuid.New()
	customerID := uuid.New()

	a := seedUnit(t, conn, productID, "356938035643809", enums.UnitStatusInStock)
	b := seedUnit(t, conn, productID, "356938035643810", enums.UnitStatusInStock)

	require.NoError(t, r.Claim(ctx, []uuid.UUID{a.ID, b.ID}, saleID, &customerID))

	var claimed []models.InventoryUnit
	require.NoError(t, conn.Where("sale_id = ?", saleID).Find(&claimed).Error)
	require.Len(t, claimed, 2)
	for _, u := range claimed {
		assert.Equal(t, enums.UnitStatusSold, u.Status)
		assert.NotNil(t, u.SoldAt)
		require.NotNil(t, u.CustomerID)
		assert.Equal(t, customerID, *u.CustomerID)
	}
}

func TestClaimConflictNamesLosingUnits(t *testing.T) {
	t.Parallel()

	conn := setupInventoryTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()

	free := seedUnit(t, conn, productID, "356938035643809", enums.UnitStatusInStock)
	taken := seedUnit(t, conn, productID, "356938035643810", enums.UnitStatusSold)

	err := r.Claim(ctx, []uuid.UUID{free.ID, taken.ID}, uuid.New(), nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok, "conflict should carry the losing imeis")
	assert.Contains(t, details["imeis"], taken.IMEI)
}

func TestReleaseRevertsClaim(t *testing.T) {
	t.Parallel()

	conn := setupInventoryTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	saleID := uuid.New()

	unit := seedUnit(t, conn, productID, "356938035643809", enums.UnitStatusInStock)
	require.NoError(t, r.Claim(ctx, []uuid.UUID{unit.ID}, saleID, nil))
	require.NoError(t, r.Release(ctx, []uuid.UUID{unit.ID}))

	var got models.InventoryUnit
	require.NoError(t, conn.First(&got, "id = ?", unit.ID).Error)
	assert.Equal(t, enums.UnitStatusInStock, got.Status)
	assert.Nil(t, got.SaleID)
	assert.Nil(t, got.SoldAt)

	// Released units are claimable again.
	require.NoError(t, r.Claim(ctx, []uuid.UUID{unit.ID}, uuid.New(), nil))
}

func TestIntakeDuplicateIMEI(t *testing.T) {
	t.Parallel()

	conn := setupInventoryTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	price := decimal.RequireFromString("120.00")

	first := &models.InventoryUnit{
		ID:           uuid.New(),
		ProductID:    productID,
		IMEI:         "356938035643809",
		Condition:    enums.UnitConditionUsed,
		SellingPrice: &price,
	}
	require.NoError(t, r.Intake(ctx, first))
	assert.Equal(t, enums.UnitStatusInStock, first.Status)

	dup := &models.InventoryUnit{
		ID:        uuid.New(),
		ProductID: productID,
		IMEI:      "356938035643809",
		Condition: enums.UnitConditionNew,
	}
	err := r.Intake(ctx, dup)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestStockDecrementAndRestore(t *testing.T) {
	t.Parallel()

	conn := setupInventoryTestDB(t)
	r := NewRepository(conn)
	ctx := context.Background()

	product := models.Product{ID: uuid.New(), Name: "Charger", BasePrice: decimal.RequireFromString("20.00"), Stock: 5}
	require.NoError(t, conn.Create(&product).Error)

	require.NoError(t, r.DecrementStock(ctx, product.ID, 3))
	var got models.Product
	require.NoError(t, conn.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.Stock)

	// Undercount floors at zero instead of going negative.
	require.NoError(t, r.DecrementStock(ctx, product.ID, 10))
	require.NoError(t, conn.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 0, got.Stock)

	require.NoError(t, r.RestoreStock(ctx, product.ID, 4))
	require.NoError(t, conn.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 4, got.Stock)

	err := r.DecrementStock(ctx, product.ID, 0)
	require.NotNil(t, pkgerrors.As(err))
}
