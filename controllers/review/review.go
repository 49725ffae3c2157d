package reviewControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// POST /products/:id/reviews — one review per user per product, re-posting
// overwrites the previous one.
func CreateReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		productID, err := utils.ParseUint(c.Param("id"))
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid product ID")
			return
		}

		var input ReviewInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		var product models.Product
		if err := db.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(c, http.StatusNotFound, "Product not found")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to retrieve product")
			return
		}

		review := models.Review{
			ProductID: productID,
			UserID:    userID,
			Rating:    input.Rating,
			Comment:   input.Comment,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).Create(&review).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to save review")
			return
		}

		utils.Success(c, http.StatusCreated, review)
	}
}

// GET /products/:id/reviews
func GetProductReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := utils.ParseUint(c.Param("id"))
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid product ID")
			return
		}

		var reviews []models.Review
		if err := db.Where("product_id = ?", productID).
			Order("created_at DESC").
			Find(&reviews).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch reviews")
			return
		}

		average := 0.0
		if len(reviews) > 0 {
			sum := 0
			for _, r := range reviews {
				sum += r.Rating
			}
			average = float64(sum) / float64(len(reviews))
		}

		utils.Success(c, http.StatusOK, gin.H{
			"reviews":        reviews,
			"average_rating": average,
			"count":          len(reviews),
		})
	}
}
