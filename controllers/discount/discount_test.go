package discountControllers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
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

	require.NoError(t, db.AutoMigrate(&models.Discount{}))
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, db *gorm.DB, d models.Discount) models.Discount {
	t.Helper()
	if d.ValidFrom.IsZero() {
		d.ValidFrom = time.Now().Add(-time.Hour)
	}
	if d.ValidUntil.IsZero() {
		d.ValidUntil = time.Now().Add(time.Hour)
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	require.Equal(t, "WELCOME", NormalizeCode("Welcome"))
}

func TestFindApplicableNormalizesInput(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.Discount{Code: "SAVE10", Kind: models.DiscountPercentage, Value: dec("10"), IsActive: true})

	found, err := FindApplicable(db, "  save10 ")
	require.NoError(t, err)
	require.Equal(t, "SAVE10", found.Code)
}

func TestFindApplicableNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := FindApplicable(db, "NOPE")
	require.ErrorIs(t, err, ErrDiscountNotFound)
}

func TestFindApplicableInactive(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.Discount{Code: "OFF", Kind: models.DiscountFixed, Value: dec("5"), IsActive: false})

	_, err := FindApplicable(db, "OFF")
	require.ErrorIs(t, err, ErrDiscountInactive)
}

func TestFindApplicableExpired(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.Discount{
		Code:       "OLD",
		Kind:       models.DiscountFixed,
		Value:      dec("5"),
		IsActive:   true,
		ValidFrom:  time.Now().Add(-48 * time.Hour),
		ValidUntil: time.Now().Add(-24 * time.Hour),
	})

	_, err := FindApplicable(db, "OLD")
	require.ErrorIs(t, err, ErrDiscountExpired)
}

func TestFindApplicableNotYetValid(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.Discount{
		Code:       "SOON",
		Kind:       models.DiscountFixed,
		Value:      dec("5"),
		IsActive:   true,
		ValidFrom:  time.Now().Add(24 * time.Hour),
		ValidUntil: time.Now().Add(48 * time.Hour),
	})

	_, err := FindApplicable(db, "SOON")
	require.ErrorIs(t, err, ErrDiscountExpired)
}

func TestFindApplicableUsageLimitReached(t *testing.T) {
	db := newTestDB(t)
	limit := 3
	seed(t, db, models.Discount{
		Code:       "LIMITED",
		Kind:       models.DiscountFixed,
		Value:      dec("5"),
		IsActive:   true,
		UsageLimit: &limit,
		UsageCount: 3,
	})

	_, err := FindApplicable(db, "LIMITED")
	require.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestComputeAmountPercentage(t *testing.T) {
	d := models.Discount{Kind: models.DiscountPercentage, Value: dec("10")}
	require.True(t, d.ComputeAmount(dec("200")).Equal(dec("20")))
}

func TestComputeAmountPercentageCapped(t *testing.T) {
	maxAmount := dec("15")
	d := models.Discount{Kind: models.DiscountPercentage, Value: dec("10"), MaxDiscountAmount: &maxAmount}
	require.True(t, d.ComputeAmount(dec("200")).Equal(dec("15")))
	require.True(t, d.ComputeAmount(dec("100")).Equal(dec("10")))
}

func TestComputeAmountFixed(t *testing.T) {
	d := models.Discount{Kind: models.DiscountFixed, Value: dec("25")}
	require.True(t, d.ComputeAmount(dec("10")).Equal(dec("25")))
	require.True(t, d.ComputeAmount(dec("100")).Equal(dec("25")))
}

func TestIncrementUsageDeactivatesAtLimit(t *testing.T) {
	limit := 2
	d := models.Discount{Kind: models.DiscountFixed, Value: dec("5"), IsActive: true, UsageLimit: &limit}

	d.IncrementUsage()
	require.True(t, d.IsActive)
	require.False(t, d.IsExhausted())

	d.IncrementUsage()
	require.False(t, d.IsActive)
	require.True(t, d.IsExhausted())
}
