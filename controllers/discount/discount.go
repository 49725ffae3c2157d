package discountControllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
)

var (
	ErrDiscountNotFound  = errors.New("discount code not found")
	ErrDiscountInactive  = errors.New("discount code is not active")
	ErrDiscountExpired   = errors.New("discount code is expired or not yet valid")
	ErrUsageLimitReached = errors.New("discount code usage limit reached")
	ErrBelowMinPurchase  = errors.New("cart subtotal is below the minimum purchase for this code")
)

// NormalizeCode maps user input to the stored form. Codes are case-insensitive
// and persisted uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FindApplicable looks up a code and checks every applicability rule except
// the minimum purchase, which depends on the caller's subtotal.
func FindApplicable(db *gorm.DB, code string) (*models.Discount, error) {
	var discount models.Discount
	if err := db.Where("code = ?", NormalizeCode(code)).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	if !discount.IsActive {
		return nil, ErrDiscountInactive
	}
	now := time.Now()
	if now.Before(discount.ValidFrom) || now.After(discount.ValidUntil) {
		return nil, ErrDiscountExpired
	}
	if discount.IsExhausted() {
		return nil, ErrUsageLimitReached
	}

	return &discount, nil
}

// -------- Request Structs --------

type DiscountInput struct {
	Code              string           `json:"code" binding:"required"`
	Kind              string           `json:"kind" binding:"required,oneof=percentage fixed"`
	Value             decimal.Decimal  `json:"value" binding:"required"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MinPurchase       decimal.Decimal  `json:"min_purchase"`
	UsageLimit        *int             `json:"usage_limit"`
	IsActive          *bool            `json:"is_active"`
	ValidFrom         time.Time        `json:"valid_from" binding:"required"`
	ValidUntil        time.Time        `json:"valid_until" binding:"required"`
}

type ValidateDiscountRequest struct {
	Code      string           `json:"code" binding:"required"`
	CartTotal *decimal.Decimal `json:"cartTotal"`
}

func validateInput(input *DiscountInput) string {
	if input.Value.IsNegative() {
		return "value must not be negative"
	}
	if input.MinPurchase.IsNegative() {
		return "min_purchase must not be negative"
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return "valid_until must be after valid_from"
	}
	if input.MaxDiscountAmount != nil && input.Kind != string(models.DiscountPercentage) {
		return "max_discount_amount applies to percentage discounts only"
	}
	return ""
}

// -------- Handlers --------

// POST /admin/discounts
func CreateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input DiscountInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		if msg := validateInput(&input); msg != "" {
			utils.Error(c, http.StatusBadRequest, msg)
			return
		}

		active := true
		if input.IsActive != nil {
			active = *input.IsActive
		}

		discount := models.Discount{
			Code:              NormalizeCode(input.Code),
			Kind:              models.DiscountKind(input.Kind),
			Value:             input.Value,
			MaxDiscountAmount: input.MaxDiscountAmount,
			MinPurchase:       input.MinPurchase,
			UsageLimit:        input.UsageLimit,
			IsActive:          active,
			ValidFrom:         input.ValidFrom,
			ValidUntil:        input.ValidUntil,
		}

		if err := db.Create(&discount).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.Error(c, http.StatusBadRequest, "Discount code already exists")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to create discount")
			return
		}

		utils.Success(c, http.StatusCreated, discount)
	}
}

// PUT /admin/discounts/:id
func UpdateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var discount models.Discount
		if err := db.First(&discount, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(c, http.StatusNotFound, "Discount not found")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch discount")
			return
		}

		var input DiscountInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		if msg := validateInput(&input); msg != "" {
			utils.Error(c, http.StatusBadRequest, msg)
			return
		}

		discount.Code = NormalizeCode(input.Code)
		discount.Kind = models.DiscountKind(input.Kind)
		discount.Value = input.Value
		discount.MaxDiscountAmount = input.MaxDiscountAmount
		discount.MinPurchase = input.MinPurchase
		discount.UsageLimit = input.UsageLimit
		if input.IsActive != nil {
			discount.IsActive = *input.IsActive
		}
		discount.ValidFrom = input.ValidFrom
		discount.ValidUntil = input.ValidUntil
		if discount.IsExhausted() {
			discount.IsActive = false
		}

		if err := db.Save(&discount).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to update discount")
			return
		}

		utils.Success(c, http.StatusOK, discount)
	}
}

// GET /admin/discounts
func GetAllDiscounts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var discounts []models.Discount
		if err := db.Order("created_at DESC").Find(&discounts).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch discounts")
			return
		}
		utils.Success(c, http.StatusOK, discounts)
	}
}

// DELETE /admin/discounts/:id
func DeleteDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Delete(&models.Discount{}, "id = ?", c.Param("id"))
		if result.Error != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to delete discount")
			return
		}
		if result.RowsAffected == 0 {
			utils.Error(c, http.StatusNotFound, "Discount not found")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"message": "Discount deleted"})
	}
}

// POST /discounts/validate
func ValidateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		discount, err := FindApplicable(db, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, ErrDiscountNotFound),
				errors.Is(err, ErrDiscountInactive),
				errors.Is(err, ErrDiscountExpired),
				errors.Is(err, ErrUsageLimitReached):
				utils.Error(c, http.StatusBadRequest, err.Error())
			default:
				utils.Error(c, http.StatusInternalServerError, "Failed to validate discount")
			}
			return
		}

		if req.CartTotal != nil && req.CartTotal.LessThan(discount.MinPurchase) {
			utils.Error(c, http.StatusBadRequest, ErrBelowMinPurchase.Error())
			return
		}

		utils.Success(c, http.StatusOK, discount)
	}
}
