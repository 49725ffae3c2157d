package models

import "time"

// Review holds one rating per user per product; re-reviewing overwrites.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID    string    `gorm:"uniqueIndex:idx_reviews_product_user" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1..5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
