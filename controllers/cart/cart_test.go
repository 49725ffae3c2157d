package cartControllers

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/catalog"
	discountControllers "github.com/storecraft/storefront-api/controllers/discount"
	"github.com/storecraft/storefront-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Discount{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedDiscount(t *testing.T, db *gorm.DB, discount models.Discount) models.Discount {
	t.Helper()
	if discount.ValidFrom.IsZero() {
		discount.ValidFrom = time.Now().Add(-time.Hour)
	}
	if discount.ValidUntil.IsZero() {
		discount.ValidUntil = time.Now().Add(time.Hour)
	}
	require.NoError(t, db.Create(&discount).Error)
	return discount
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddItemNewLine(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "Keyboard", "10.50", 5)

	cart, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, product.ID, cart.Items[0].ProductID)
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.True(t, cart.Items[0].UnitPrice.Equal(dec("10.50")))
	require.True(t, cart.Items[0].LineTotal.Equal(dec("21")))
	require.True(t, cart.Subtotal.Equal(dec("21")))
	require.True(t, cart.Total.Equal(dec("21")))
}

func TestAddItemMergesAndReprices(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "Mouse", "10", 10)

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	// Price drifts between adds; the merged line takes the current price.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", dec("12")).Error)

	cart, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, 3, cart.Items[0].Quantity)
	require.True(t, cart.Items[0].UnitPrice.Equal(dec("12")))
	require.True(t, cart.Items[0].LineTotal.Equal(dec("36")))
	require.True(t, cart.Subtotal.Equal(dec("36")))
}

func TestAddItemProductNotFound(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)

	_, err := AddItem(context.Background(), db, cat, "user-1", 999, 1)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestAddItemInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "Limited", "5", 3)

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 4)
	require.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := loadCart(db, "user-1")
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestAddItemMergeExceedingStock(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "Limited", "5", 3)

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)

	_, err = AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := loadCart(db, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
}

func TestUpdateItemStockExceededLeavesCartUnmodified(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "Limited", "5", 3)

	cart, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = UpdateItem(context.Background(), db, cat, "user-1", itemID, 5)
	require.ErrorIs(t, err, ErrInsufficientStock)

	reloaded, err := loadCart(db, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Items[0].Quantity)
	require.True(t, reloaded.Subtotal.Equal(dec("5")))
}

func TestUpdateItemNotFound(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)

	_, err := UpdateItem(context.Background(), db, cat, "user-1", 42, 1)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	first := seedProduct(t, db, "A", "10", 5)
	second := seedProduct(t, db, "B", "20", 5)

	_, err := AddItem(context.Background(), db, cat, "user-1", first.ID, 1)
	require.NoError(t, err)
	cart, err := AddItem(context.Background(), db, cat, "user-1", second.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	var removeID uint
	for _, item := range cart.Items {
		if item.ProductID == first.ID {
			removeID = item.ID
		}
	}

	cart, err = RemoveItem(db, "user-1", removeID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, second.ID, cart.Items[0].ProductID)
	require.True(t, cart.Subtotal.Equal(dec("20")))
}

func TestRemoveItemNotFound(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "10", 5)

	cart, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	_, err = RemoveItem(db, "user-1", 9999)
	require.ErrorIs(t, err, ErrItemNotFound)

	reloaded, err := loadCart(db, "user-1")
	require.NoError(t, err)
	require.Len(t, reloaded.Items, len(cart.Items))
}

func TestClearCartResetsDiscount(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	seedDiscount(t, db, models.Discount{
		Code:     "SAVE10",
		Kind:     models.DiscountPercentage,
		Value:    dec("10"),
		IsActive: true,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)
	_, err = ApplyDiscount(db, "user-1", "SAVE10")
	require.NoError(t, err)

	cart, err := ClearCart(db, "user-1")
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Empty(t, cart.DiscountCode)
	require.True(t, cart.DiscountAmount.IsZero())
	require.True(t, cart.Subtotal.IsZero())
	require.True(t, cart.Total.IsZero())
}

func TestTotalsInvariantAfterMutationSequence(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	first := seedProduct(t, db, "A", "9.99", 10)
	second := seedProduct(t, db, "B", "25", 10)

	_, err := AddItem(context.Background(), db, cat, "user-1", first.ID, 3)
	require.NoError(t, err)
	cart, err := AddItem(context.Background(), db, cat, "user-1", second.ID, 2)
	require.NoError(t, err)

	var itemID uint
	for _, item := range cart.Items {
		if item.ProductID == first.ID {
			itemID = item.ID
		}
	}
	cart, err = UpdateItem(context.Background(), db, cat, "user-1", itemID, 5)
	require.NoError(t, err)

	expected := decimal.Zero
	for _, item := range cart.Items {
		require.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
		expected = expected.Add(item.LineTotal)
	}
	require.True(t, cart.Subtotal.Equal(expected))
	require.True(t, cart.Total.Equal(expected.Sub(cart.DiscountAmount)))
}

func TestApplyPercentageDiscount(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	seedDiscount(t, db, models.Discount{
		Code:     "SAVE10",
		Kind:     models.DiscountPercentage,
		Value:    dec("10"),
		IsActive: true,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)

	cart, err := ApplyDiscount(db, "user-1", "save10") // case-insensitive
	require.NoError(t, err)
	require.Equal(t, "SAVE10", cart.DiscountCode)
	require.True(t, cart.DiscountAmount.Equal(dec("20")))
	require.True(t, cart.Total.Equal(dec("180")))
}

func TestApplyDiscountDoesNotCountUsage(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	limit := 1
	seedDiscount(t, db, models.Discount{
		Code:       "SINGLE",
		Kind:       models.DiscountFixed,
		Value:      dec("5"),
		IsActive:   true,
		UsageLimit: &limit,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	// Applying only stores {code, amount}; the usage counter moves at order
	// commit, so the code stays live.
	_, err = ApplyDiscount(db, "user-1", "SINGLE")
	require.NoError(t, err)

	var reloaded models.Discount
	require.NoError(t, db.First(&reloaded, "code = ?", "SINGLE").Error)
	require.Zero(t, reloaded.UsageCount)
	require.True(t, reloaded.IsActive)
}

func TestApplyDiscountWithCap(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	maxAmount := dec("15")
	seedDiscount(t, db, models.Discount{
		Code:              "CAPPED",
		Kind:              models.DiscountPercentage,
		Value:             dec("10"),
		MaxDiscountAmount: &maxAmount,
		IsActive:          true,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 2)
	require.NoError(t, err)

	cart, err := ApplyDiscount(db, "user-1", "CAPPED")
	require.NoError(t, err)
	require.True(t, cart.DiscountAmount.Equal(dec("15")))
	require.True(t, cart.Total.Equal(dec("185")))
}

func TestApplyExpiredDiscountLeavesCartUnchanged(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	seedDiscount(t, db, models.Discount{
		Code:       "OLD",
		Kind:       models.DiscountFixed,
		Value:      dec("5"),
		IsActive:   true,
		ValidFrom:  time.Now().Add(-48 * time.Hour),
		ValidUntil: time.Now().Add(-24 * time.Hour),
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	_, err = ApplyDiscount(db, "user-1", "OLD")
	require.ErrorIs(t, err, discountControllers.ErrDiscountExpired)

	cart, err := loadCart(db, "user-1")
	require.NoError(t, err)
	require.Empty(t, cart.DiscountCode)
	require.True(t, cart.DiscountAmount.IsZero())
}

func TestApplyInactiveDiscount(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "100", 5)
	seedDiscount(t, db, models.Discount{
		Code:     "OFF",
		Kind:     models.DiscountFixed,
		Value:    dec("5"),
		IsActive: false,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	_, err = ApplyDiscount(db, "user-1", "OFF")
	require.ErrorIs(t, err, discountControllers.ErrDiscountInactive)
}

func TestApplyDiscountBelowMinPurchase(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "10", 5)
	seedDiscount(t, db, models.Discount{
		Code:        "BIGSPEND",
		Kind:        models.DiscountFixed,
		Value:       dec("5"),
		MinPurchase: dec("50"),
		IsActive:    true,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	_, err = ApplyDiscount(db, "user-1", "BIGSPEND")
	require.ErrorIs(t, err, discountControllers.ErrBelowMinPurchase)
}

func TestFixedDiscountExceedingSubtotalFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	cat := catalog.New(db, nil)
	product := seedProduct(t, db, "A", "3", 5)
	seedDiscount(t, db, models.Discount{
		Code:     "HUGE",
		Kind:     models.DiscountFixed,
		Value:    dec("50"),
		IsActive: true,
	})

	_, err := AddItem(context.Background(), db, cat, "user-1", product.ID, 1)
	require.NoError(t, err)

	cart, err := ApplyDiscount(db, "user-1", "HUGE")
	require.NoError(t, err)
	require.True(t, cart.Total.IsZero())
	require.True(t, cart.Subtotal.Equal(dec("3")))
}
