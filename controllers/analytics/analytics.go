package analyticsControllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
)

type topProduct struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity_sold"`
}

// GET /admin/analytics/sales — order counts per status and total revenue from
// completed payments, plus the best-selling products.
func GetSalesSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Find(&orders).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}

		statusCounts := map[string]int{}
		revenue := decimal.Zero
		soldByProduct := map[uint]*topProduct{}

		for i := range orders {
			statusCounts[string(orders[i].Status)]++
			if orders[i].PaymentStatus == models.PaymentStatusCompleted {
				revenue = revenue.Add(orders[i].TotalAmount)
			}
			for _, item := range orders[i].Items {
				entry, ok := soldByProduct[item.ProductID]
				if !ok {
					entry = &topProduct{ProductID: item.ProductID, ProductName: item.ProductName}
					soldByProduct[item.ProductID] = entry
				}
				entry.Quantity += item.Quantity
			}
		}

		top := make([]topProduct, 0, len(soldByProduct))
		for _, entry := range soldByProduct {
			top = append(top, *entry)
		}
		sort.Slice(top, func(i, j int) bool { return top[i].Quantity > top[j].Quantity })
		if len(top) > 5 {
			top = top[:5]
		}

		utils.Success(c, http.StatusOK, gin.H{
			"total_orders":  len(orders),
			"status_counts": statusCounts,
			"revenue":       revenue,
			"top_products":  top,
		})
	}
}
