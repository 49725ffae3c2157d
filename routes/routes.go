package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/storecraft/storefront-api/catalog"
	"github.com/storecraft/storefront-api/events"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up Auth, User, Product,
// Order, and Admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Lookup, producer *events.Producer) {
	// Public auth routes (no middleware)
	SetupAuthRoutes(r, db)

	// Public product browsing + reviews + discount validation
	SetupProductRoutes(r, db)

	// User routes (JWT-protected): profile + cart
	SetupUserRoutes(r, db, cat)

	// Order routes (JWT-protected, admin sub-routes)
	SetupOrderRoutes(r, db, cat, producer)

	// Admin routes (JWT + admin role)
	SetupAdminRoutes(r, db, cat, producer)
}
