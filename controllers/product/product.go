package productControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storecraft/storefront-api/catalog"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

var sortColumns = map[string]bool{
	"created_at": true,
	"price":      true,
	"name":       true,
	"stock":      true,
}

// GET /products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		category := c.Query("category")
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		sortBy := c.DefaultQuery("sort_by", "created_at")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}
		if !sortColumns[sortBy] {
			sortBy = "created_at"
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if limit < 1 || limit > 100 {
			limit = 20
		}

		query := db.Model(&models.Product{})

		if search != "" {
			likePattern := "%" + search + "%"
			query = query.Where("name LIKE ? OR description LIKE ?", likePattern, likePattern)
		}
		if category != "" {
			query = query.Where("category = ?", category)
		}
		if minPriceStr != "" {
			if mp, err := decimal.NewFromString(minPriceStr); err == nil {
				query = query.Where("price >= ?", mp)
			} else {
				utils.Error(c, http.StatusBadRequest, "Invalid min_price")
				return
			}
		}
		if maxPriceStr != "" {
			if mp, err := decimal.NewFromString(maxPriceStr); err == nil {
				query = query.Where("price <= ?", mp)
			} else {
				utils.Error(c, http.StatusBadRequest, "Invalid max_price")
				return
			}
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch products")
			return
		}

		var products []models.Product
		if err := query.
			Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&products).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to fetch products")
			return
		}

		utils.Success(c, http.StatusOK, gin.H{
			"products": products,
			"page":     page,
			"limit":    limit,
			"total":    total,
		})
	}
}

// GET /products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseUint(c.Param("id"))
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid product ID")
			return
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(c, http.StatusNotFound, "Product not found")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to retrieve product")
			return
		}
		utils.Success(c, http.StatusOK, product)
	}
}

// POST /admin/products
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		if input.Price.IsNegative() || input.Stock < 0 {
			utils.Error(c, http.StatusBadRequest, "price and stock must not be negative")
			return
		}

		product := models.Product{
			Name:        input.Name,
			Description: input.Description,
			Category:    input.Category,
			Price:       input.Price,
			Stock:       input.Stock,
			Image:       input.Image,
		}
		if err := db.Create(&product).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to create product")
			return
		}
		utils.Success(c, http.StatusCreated, product)
	}
}

// PUT /admin/products/:id
func UpdateProduct(db *gorm.DB, cat *catalog.Lookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseUint(c.Param("id"))
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid product ID")
			return
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(c, http.StatusNotFound, "Product not found")
				return
			}
			utils.Error(c, http.StatusInternalServerError, "Failed to retrieve product")
			return
		}

		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		if input.Price.IsNegative() || input.Stock < 0 {
			utils.Error(c, http.StatusBadRequest, "price and stock must not be negative")
			return
		}

		product.Name = input.Name
		product.Description = input.Description
		product.Category = input.Category
		product.Price = input.Price
		product.Stock = input.Stock
		product.Image = input.Image

		if err := db.Save(&product).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to update product")
			return
		}

		cat.Invalidate(c.Request.Context(), product.ID)
		utils.Success(c, http.StatusOK, product)
	}
}

// DELETE /admin/products/:id — soft delete; carts and orders keep their
// weak references by product id.
func DeleteProduct(db *gorm.DB, cat *catalog.Lookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseUint(c.Param("id"))
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid product ID")
			return
		}

		result := db.Delete(&models.Product{}, id)
		if result.Error != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to delete product")
			return
		}
		if result.RowsAffected == 0 {
			utils.Error(c, http.StatusNotFound, "Product not found")
			return
		}

		cat.Invalidate(c.Request.Context(), id)
		utils.Success(c, http.StatusOK, gin.H{"message": "Product deleted"})
	}
}
