package middleware

import (
	"io"
	"net/http"

	"expense-tracker/api/logger"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const StripeEventKey = "stripe_event"

// maxWebhookBody mirrors the limit Stripe recommends for webhook payloads.
const maxWebhookBody = 65536

// StripeWebhookVerifier checks the Stripe-Signature header and stores the
// decoded stripe.Event under StripeEventKey.
func StripeWebhookVerifier(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "webhook not configured"})
			c.Abort()
			return
		}

		b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			logger.Get().Error("failed to read webhook body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		event, err := webhook.ConstructEvent(b, c.Request.Header.Get("Stripe-Signature"), secret)
		if err != nil {
			logger.Get().Warn("webhook signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(StripeEventKey, event)
		c.Next()
	}
}
