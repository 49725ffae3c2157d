package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses
	OrderStatusProcessing OrderStatus = "processing" // Order placed, being prepared
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled before shipping

	// Payment statuses
	PaymentStatusPending   PaymentStatus = "pending"   // Payment not completed yet
	PaymentStatusCompleted PaymentStatus = "completed" // Payment completed successfully
	PaymentStatusFailed    PaymentStatus = "failed"    // Payment attempt failed
)

// Order is an immutable snapshot of a committed purchase. Per-line prices and
// TotalAmount are frozen at creation; only the status fields change afterwards.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderRef        string          `gorm:"uniqueIndex" json:"order_ref"`
	UserID          string          `gorm:"index;not null" json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"` // e.g. "card", "cod"
	PaymentStatus   PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'processing'" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"index" json:"order_id"`
	ProductID           uint            `json:"product_id"`
	ProductName         string          `json:"product_name"`
	UnitPriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price_at_purchase"`
	Quantity            int             `json:"quantity"`
}
