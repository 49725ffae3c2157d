package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/storecraft/storefront-api/catalog"
	analyticsControllers "github.com/storecraft/storefront-api/controllers/analytics"
	discountControllers "github.com/storecraft/storefront-api/controllers/discount"
	orderControllers "github.com/storecraft/storefront-api/controllers/order"
	productControllers "github.com/storecraft/storefront-api/controllers/product"
	userControllers "github.com/storecraft/storefront-api/controllers/user"
	"github.com/storecraft/storefront-api/events"
	"github.com/storecraft/storefront-api/middleware"
	"gorm.io/gorm"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires JWT + admin role.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Lookup, producer *events.Producer) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateToken, middleware.RequireAdmin)
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", userControllers.GetAllUsers(db))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productControllers.CreateProduct(db))
			productAdmin.PUT("/:id", productControllers.UpdateProduct(db, cat))
			productAdmin.DELETE("/:id", productControllers.DeleteProduct(db, cat))
			productAdmin.GET("/export-excel", productControllers.ExportProductsToExcel(db))
		}

		// ─────────── Discount Management ───────────
		discountAdmin := adminGroup.Group("/discounts")
		{
			discountAdmin.POST("", discountControllers.CreateDiscount(db))
			discountAdmin.PUT("/:id", discountControllers.UpdateDiscount(db))
			discountAdmin.GET("", discountControllers.GetAllDiscounts(db))
			discountAdmin.DELETE("/:id", discountControllers.DeleteDiscount(db))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(db))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db, producer))
			orderAdmin.PUT("/:orderID/payment-status", orderControllers.UpdatePaymentStatusHandler(db, producer))
		}

		// ─────────── Analytics ───────────
		adminGroup.GET("/analytics/sales", analyticsControllers.GetSalesSummary(db))
	}
}
