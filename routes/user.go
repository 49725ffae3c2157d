package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/storecraft/storefront-api/catalog"
	cartControllers "github.com/storecraft/storefront-api/controllers/cart"
	userControllers "github.com/storecraft/storefront-api/controllers/user"
	"github.com/storecraft/storefront-api/middleware"
	"gorm.io/gorm"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Lookup) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("", userControllers.GetUser(db))
		userGroup.PUT("", userControllers.UpdateUser(db))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(db))
			cartGroup.POST("/items", cartControllers.AddItemHandler(db, cat))
			cartGroup.PUT("/items/:itemId", cartControllers.UpdateItemHandler(db, cat))
			cartGroup.DELETE("/items/:itemId", cartControllers.RemoveItemHandler(db))
			cartGroup.DELETE("", cartControllers.ClearCartHandler(db))
			cartGroup.POST("/discount", cartControllers.ApplyDiscountHandler(db))
		}
	}
}
