package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/storecraft/storefront-api/models"
	"github.com/storecraft/storefront-api/utils"
)

// ValidateToken checks the Authorization header and attaches {user_id, role}
// to the request context.
func ValidateToken(c *gin.Context) {
	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		utils.Error(c, http.StatusUnauthorized, "Authorization header is missing")
		c.Abort()
		return
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		utils.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		c.Abort()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "Invalid token claims")
		c.Abort()
		return
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		utils.Error(c, http.StatusUnauthorized, "Invalid token claims")
		c.Abort()
		return
	}

	c.Set("user_id", userID)
	c.Set("role", role)
	c.Next()
}

// RequireAdmin rejects non-admin users; must run after ValidateToken.
func RequireAdmin(c *gin.Context) {
	if c.GetString("role") != models.RoleAdmin {
		utils.Error(c, http.StatusForbidden, "Admin access required")
		c.Abort()
		return
	}
	c.Next()
}
