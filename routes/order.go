package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/storecraft/storefront-api/catalog"
	orderControllers "github.com/storecraft/storefront-api/controllers/order"
	"github.com/storecraft/storefront-api/events"
	"github.com/storecraft/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, cat *catalog.Lookup, producer *events.Producer) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		// Checkout: convert an item list into an immutable order
		orders.POST("", orderControllers.CreateOrderHandler(db, cat, producer))

		// Fetch own orders
		orders.GET("", orderControllers.GetMyOrdersHandler(db))

		// Fetch one order (owner or admin)
		orders.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
	}

	// websocket endpoint for real-time order updates
	r.GET("/orders/ws", orderControllers.OrderWebSocketHandler)
}
