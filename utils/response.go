package utils

import "github.com/gin-gonic/gin"

// Success writes the shared success envelope: {"success": true, "data": ...}
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// Error writes the shared error envelope: {"success": false, "message": ...}
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}
