package middleware

import (
	"github.com/gin-gonic/gin"
)

// Cors allows the static pages to call the API from any origin. The bearer
// token travels in a header, so no credentials are allowed.
func Cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Stripe-Signature")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}
