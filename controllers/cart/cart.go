package cartControllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/catalog"
	discountControllers "github.com/storecraft/storefront-api/controllers/discount"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound      = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// -------- Request Structs --------

type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

// -------- Core Logic --------

// loadCart fetches the user's cart with items, creating it lazily on first
// access. One cart per user, never deleted.
func loadCart(db *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{
			UserID:         userID,
			DiscountAmount: decimal.Zero,
			Subtotal:       decimal.Zero,
			Total:          decimal.Zero,
		}
		if err := db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// saveCart recomputes the derived totals and persists item rows plus the cart
// columns in one transaction.
func saveCart(db *gorm.DB, cart *models.Cart) error {
	cart.RecomputeTotals()
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range cart.Items {
			if err := tx.Save(&cart.Items[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Cart{}).Where("cart_id = ?", cart.CartID).
			Updates(map[string]interface{}{
				"discount_code":   cart.DiscountCode,
				"discount_amount": cart.DiscountAmount,
				"subtotal":        cart.Subtotal,
				"total":           cart.Total,
			}).Error
	})
}

// AddItem puts quantity of a product into the cart. A product already in the
// cart gets its quantity incremented and its line re-priced at the current
// catalog price; a new product is appended with the price snapshotted now.
// Stock is checked against total stock, no reservation is taken.
func AddItem(ctx context.Context, db *gorm.DB, cat *catalog.Lookup, userID string, productID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := cat.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := loadCart(db, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			newQuantity := cart.Items[i].Quantity + quantity
			if newQuantity > product.Stock {
				return nil, ErrInsufficientStock
			}
			cart.Items[i].Quantity = newQuantity
			cart.Items[i].UnitPrice = product.Price
			cart.Items[i].ProductName = product.Name
			merged = true
			break
		}
	}

	if !merged {
		if quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
		cart.Items = append(cart.Items, models.CartItem{
			CartID:      cart.CartID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			AddedAt:     time.Now(),
		})
	}

	if err := saveCart(db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the absolute quantity of an existing line item, re-checking
// stock. The stored price snapshot is kept.
func UpdateItem(ctx context.Context, db *gorm.DB, cat *catalog.Lookup, userID string, itemID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := loadCart(db, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrItemNotFound
	}

	product, err := cat.GetProduct(ctx, cart.Items[idx].ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, ErrInsufficientStock
	}

	cart.Items[idx].Quantity = quantity

	if err := saveCart(db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a line item unconditionally; emptying the cart is fine.
func RemoveItem(db *gorm.DB, userID string, itemID uint) (*models.Cart, error) {
	cart, err := loadCart(db, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrItemNotFound
	}

	if err := db.Delete(&models.CartItem{}, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := saveCart(db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart empties the items and resets the discount.
func ClearCart(db *gorm.DB, userID string) (*models.Cart, error) {
	cart, err := loadCart(db, userID)
	if err != nil {
		return nil, err
	}

	if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	cart.Items = nil
	cart.DiscountCode = ""
	cart.DiscountAmount = decimal.Zero

	if err := saveCart(db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyDiscount validates a code against the cart's current subtotal and
// stores {code, amount} on the cart. Usage counting happens at order commit,
// not here.
func ApplyDiscount(db *gorm.DB, userID, code string) (*models.Cart, error) {
	cart, err := loadCart(db, userID)
	if err != nil {
		return nil, err
	}

	discount, err := discountControllers.FindApplicable(db, code)
	if err != nil {
		return nil, err
	}
	if cart.Subtotal.LessThan(discount.MinPurchase) {
		return nil, discountControllers.ErrBelowMinPurchase
	}

	cart.DiscountCode = discount.Code
	cart.DiscountAmount = discount.ComputeAmount(cart.Subtotal)

	if err := saveCart(db, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// -------- Handlers --------

func respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		utils.Error(c, http.StatusNotFound, "Product does not exist")
	case errors.Is(err, ErrItemNotFound):
		utils.Error(c, http.StatusNotFound, "Cart item not found")
	case errors.Is(err, ErrInsufficientStock):
		utils.Error(c, http.StatusBadRequest, "Insufficient stock for requested quantity")
	case errors.Is(err, ErrInvalidQuantity):
		utils.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, discountControllers.ErrDiscountNotFound),
		errors.Is(err, discountControllers.ErrDiscountInactive),
		errors.Is(err, discountControllers.ErrDiscountExpired),
		errors.Is(err, discountControllers.ErrUsageLimitReached),
		errors.Is(err, discountControllers.ErrBelowMinPurchase):
		utils.Error(c, http.StatusBadRequest, err.Error())
	default:
		utils.Error(c, http.StatusInternalServerError, "Failed to update cart")
	}
}

// GET /user/cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		cart, err := loadCart(db, userID)
		if err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch cart")
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

// POST /user/cart/items
func AddItemHandler(db *gorm.DB, cat *catalog.Lookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		cart, err := AddItem(c.Request.Context(), db, cat, userID, req.ProductID, req.Quantity)
		if err != nil {
			respondCartError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

// PUT /user/cart/items/:itemId
func UpdateItemHandler(db *gorm.DB, cat *catalog.Lookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		itemID, ok := parseUintParam(c, "itemId")
		if !ok {
			return
		}

		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		cart, err := UpdateItem(c.Request.Context(), db, cat, userID, itemID, req.Quantity)
		if err != nil {
			respondCartError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

// DELETE /user/cart/items/:itemId
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		itemID, ok := parseUintParam(c, "itemId")
		if !ok {
			return
		}

		cart, err := RemoveItem(db, userID, itemID)
		if err != nil {
			respondCartError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

// DELETE /user/cart
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		cart, err := ClearCart(db, userID)
		if err != nil {
			respondCartError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

// POST /user/cart/discount
func ApplyDiscountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req ApplyDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		cart, err := ApplyDiscount(db, userID, req.Code)
		if err != nil {
			respondCartError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, cart)
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseUint(c.Param(name))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
