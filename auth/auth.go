package auth

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 72 * time.Hour

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// IssueToken signs an HMAC JWT carrying the user id and role.
func IssueToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// POST /auth/register
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		var existing models.User
		err := db.Where("email = ?", req.Email).First(&existing).Error
		if err == nil {
			utils.Error(c, http.StatusBadRequest, "Email already registered")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusInternalServerError, "Failed to check email")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		user := models.User{
			ID:       uuid.NewString(),
			Email:    req.Email,
			Password: string(hash),
			Name:     req.Name,
			Role:     models.RoleUser,
		}
		if err := db.Create(&user).Error; err != nil {
			utils.Error(c, http.StatusInternalServerError, "Failed to create user")
			return
		}

		token, err := IssueToken(user.ID, user.Role)
		if err != nil {
			utils.Error(c, http.StatusInternalServerError, "Token generation failed")
			return
		}

		utils.Success(c, http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

// POST /auth/login
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			utils.Error(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			utils.Error(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		token, err := IssueToken(user.ID, user.Role)
		if err != nil {
			utils.Error(c, http.StatusInternalServerError, "Token generation failed")
			return
		}

		utils.Success(c, http.StatusOK, gin.H{"user": user, "token": token})
	}
}
