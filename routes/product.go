package routes

import (
	"github.com/gin-gonic/gin"
	discountControllers "github.com/storecraft/storefront-api/controllers/discount"
	productControllers "github.com/storecraft/storefront-api/controllers/product"
	reviewControllers "github.com/storecraft/storefront-api/controllers/review"
	"github.com/storecraft/storefront-api/middleware"
	"gorm.io/gorm"
)

// SetupProductRoutes registers public catalog browsing, product reviews, and
// discount validation.
func SetupProductRoutes(r *gin.Engine, db *gorm.DB) {
	products := r.Group("/products")
	{
		products.GET("", productControllers.GetProducts(db))
		products.GET("/:id", productControllers.GetProductByID(db))
		products.GET("/:id/reviews", reviewControllers.GetProductReviews(db))
		products.POST("/:id/reviews", middleware.ValidateToken, reviewControllers.CreateReview(db))
	}

	r.POST("/discounts/validate", discountControllers.ValidateDiscount(db))
}
