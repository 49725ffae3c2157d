package orderControllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/catalog"
	"github.com/storecraft/storefront-api/events"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = catalog.ErrProductNotFound
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
)

// -------- Request Structs --------

type OrderItemInput struct {
	ProductID uint `json:"product" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress models.Address   `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// -------- Helpers --------

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusProcessing):
		return models.OrderStatusProcessing, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", errors.New("invalid order status")
	}
}

func mapPaymentStatus(status string) (models.PaymentStatus, error) {
	switch strings.ToLower(status) {
	case string(models.PaymentStatusPending):
		return models.PaymentStatusPending, nil
	case string(models.PaymentStatusCompleted):
		return models.PaymentStatusCompleted, nil
	case string(models.PaymentStatusFailed):
		return models.PaymentStatusFailed, nil
	default:
		return "", errors.New("invalid payment status")
	}
}

// Generate unique order reference, e.g. 20250908130500-<uuid4>
func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// -------- Core Logic --------

// CreateOrder converts an explicit item list into an immutable order snapshot.
// Every product is re-resolved at commit time: the per-line price is frozen at
// the current catalog price (not the cart's stored snapshot) and stock is
// checked and decremented in a single conditional UPDATE, so two checkouts can
// never drive stock negative. The whole assembly runs in one transaction; a
// failed line rolls back every decrement.
//
// TotalAmount is the plain sum of frozen line prices. The cart's applied
// discount is deliberately not subtracted here; it is counted as redeemed
// (usage increment) and settled outside the order record.
func CreateOrder(ctx context.Context, db *gorm.DB, userID string, req CreateOrderRequest) (*models.Order, error) {
	var order models.Order

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		var orderItems []models.OrderItem

		for _, input := range req.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", input.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}

			// Atomic compare-and-decrement; the WHERE clause is the stock check.
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", input.ProductID, input.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", input.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))))
			orderItems = append(orderItems, models.OrderItem{
				ProductID:           product.ID,
				ProductName:         product.Name,
				UnitPriceAtPurchase: product.Price,
				Quantity:            input.Quantity,
			})
		}

		order = models.Order{
			OrderRef:        generateOrderRef(),
			UserID:          userID,
			Items:           orderItems,
			TotalAmount:     total,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			Status:          models.OrderStatusProcessing,
			CreatedAt:       time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Redeem the cart's applied discount at commit time. The cart keeps
		// its items; only the consumed code is detached.
		return redeemCartDiscount(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// redeemCartDiscount increments the usage counter of the discount applied to
// the user's cart, if any, deactivating the code once its limit is reached.
// The consumed code is detached from the cart so the next checkout cannot
// redeem it again; the cart items stay in place.
func redeemCartDiscount(tx *gorm.DB, userID string) error {
	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if cart.DiscountCode == "" {
		return nil
	}

	var discount models.Discount
	if err := tx.Where("code = ?", cart.DiscountCode).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	discount.IncrementUsage()
	if err := tx.Save(&discount).Error; err != nil {
		return err
	}

	// Items were not preloaded, so the total is restored from the stored
	// subtotal rather than recomputed.
	return tx.Model(&models.Cart{}).Where("cart_id = ?", cart.CartID).
		Updates(map[string]interface{}{
			"discount_code":   "",
			"discount_amount": decimal.Zero,
			"total":           cart.Subtotal,
		}).Error
}

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(db *gorm.DB, cat *catalog.Lookup, producer *events.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		order, err := CreateOrder(c.Request.Context(), db, userID, req)
		if err != nil {
			switch {
			case errors.Is(err, ErrProductNotFound):
				utils.Error(c, http.StatusNotFound, "Product does not exist")
			case errors.Is(err, ErrInsufficientStock):
				utils.Error(c, http.StatusBadRequest, "Insufficient stock for requested quantity")
			default:
				utils.Error(c, http.StatusInternalServerError, "Failed to create order")
			}
			return
		}

		for _, item := range order.Items {
			cat.Invalidate(c.Request.Context(), item.ProductID)
		}
		producer.PublishOrderEvent(c.Request.Context(), events.OrderCreated, order)
		broadcastOrderUpdate(order)

		utils.Success(c, http.StatusCreated, order)
	}
}

// GET /orders
func GetMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var orders []models.Order
		if err := db.Where("user_id = ?", userID).
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}
		utils.Success(c, http.StatusOK, orders)
	}
}

// findOrder resolves a path parameter that is either a numeric order id or an
// order ref. The two predicates stay disjoint: comparing a ref string against
// the integer id column would make postgres reject the bind parameter.
func findOrder(db *gorm.DB, key string) (*models.Order, error) {
	query := db.Preload("Items")
	if id, err := utils.ParseUint(key); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_ref = ?", key)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GET /orders/:orderID — owner or admin only
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := findOrder(db, c.Param("orderID"))
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				utils.Error(c, http.StatusNotFound, "Order not found")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch order")
			return
		}

		if order.UserID != c.GetString("user_id") && c.GetString("role") != models.RoleAdmin {
			utils.Error(c, http.StatusForbidden, "Not allowed to view this order")
			return
		}
		utils.Success(c, http.StatusOK, order)
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}
		utils.Success(c, http.StatusOK, orders)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB, producer *events.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		updateStatusField(c, db, producer, func(req *gin.Context) (string, string, error) {
			var body UpdateOrderStatusRequest
			if err := req.ShouldBindJSON(&body); err != nil {
				return "", "", err
			}
			status, err := mapOrderStatus(body.Status)
			return "status", string(status), err
		})
	}
}

// PUT /admin/orders/:orderID/payment-status
func UpdatePaymentStatusHandler(db *gorm.DB, producer *events.Producer) gin.HandlerFunc {
	return func(c *gin.Context) {
		updateStatusField(c, db, producer, func(req *gin.Context) (string, string, error) {
			var body UpdatePaymentStatusRequest
			if err := req.ShouldBindJSON(&body); err != nil {
				return "", "", err
			}
			status, err := mapPaymentStatus(body.PaymentStatus)
			return "payment_status", string(status), err
		})
	}
}

func updateStatusField(c *gin.Context, db *gorm.DB, producer *events.Producer, parse func(*gin.Context) (string, string, error)) {
	orderID := c.Param("orderID")

	column, value, err := parse(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := findOrder(db, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			utils.Error(c, http.StatusNotFound, "Order not found")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if err := db.Model(order).Update(column, value).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "Failed to update order")
		return
	}

	producer.PublishOrderEvent(c.Request.Context(), events.OrderStatusChanged, order)
	broadcastOrderUpdate(order)

	utils.Success(c, http.StatusOK, order)
}
