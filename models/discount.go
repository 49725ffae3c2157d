package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type Discount struct {
	ID                uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Code              string           `gorm:"uniqueIndex;not null" json:"code"` // stored uppercase
	Kind              DiscountKind     `gorm:"type:VARCHAR(20);not null" json:"kind"`
	Value             decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"value"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount_amount,omitempty"` // percentage only
	MinPurchase       decimal.Decimal  `gorm:"type:decimal(12,2)" json:"min_purchase"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UsageCount        int              `json:"usage_count"`
	IsActive          bool             `gorm:"default:true" json:"is_active"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ComputeAmount returns the discount amount for the given subtotal.
// Percentage discounts are capped at MaxDiscountAmount when set; fixed
// discounts return Value as-is (the cart total formula floors at zero).
func (d *Discount) ComputeAmount(subtotal decimal.Decimal) decimal.Decimal {
	if d.Kind == DiscountPercentage {
		amount := subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
		if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
			amount = *d.MaxDiscountAmount
		}
		return amount
	}
	return d.Value
}

// IncrementUsage counts one redemption; the code is forced inactive once the
// usage limit is reached.
func (d *Discount) IncrementUsage() {
	d.UsageCount++
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		d.IsActive = false
	}
}

// IsExhausted reports whether the usage limit has been reached.
func (d *Discount) IsExhausted() bool {
	return d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit
}
