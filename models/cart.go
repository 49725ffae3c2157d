package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	CartID         uint            `gorm:"primaryKey" json:"cart_id"`
	UserID         string          `gorm:"uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_amount"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CartItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CartID      uint            `gorm:"index" json:"cart_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"` // snapshot at add-time
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2)" json:"line_total"`
	AddedAt     time.Time       `json:"added_at"`
}

// RecomputeTotals rebuilds every derived amount on the cart. Subtotal and
// Total are never written directly; call this after each mutation, before
// persisting.
func (c *Cart) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range c.Items {
		c.Items[i].LineTotal = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
		subtotal = subtotal.Add(c.Items[i].LineTotal)
	}
	c.Subtotal = subtotal

	total := subtotal.Sub(c.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total
}
