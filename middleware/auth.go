package middleware

import (
	"context"
	"net/http"
	"strings"

	"expense-tracker/api/auth"
	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// UserKey is the gin context key holding the authenticated *models.User.
const UserKey = "user"

type UserFinder interface {
	GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// Auth verifies the bearer token, loads its user and stores it in the context.
func Auth(secret []byte, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			logger.Get().Debug("rejected bearer token", zap.Error(err))
			abortUnauthorized(c)
			return
		}

		id, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), id)
		if err != nil {
			logger.Get().Warn("token user lookup failed",
				zap.String("user_id", claims.UserID),
				zap.Error(err))
			abortUnauthorized(c)
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// RequirePremium must run after Auth.
func RequirePremium(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortUnauthorized(c)
		return
	}
	if !user.IsPremiumUser {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Premium membership required"})
		c.Abort()
		return
	}
	c.Next()
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false})
	c.Abort()
}

// extractToken accepts "Bearer <token>" as well as the bare token the
// browser scripts send.
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	switch {
	case len(parts) == 1:
		return parts[0]
	case len(parts) == 2 && strings.EqualFold(parts[0], "Bearer"):
		return parts[1]
	default:
		return ""
	}
}
