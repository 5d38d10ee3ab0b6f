package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"expense-tracker/api/logger"
	"expense-tracker/api/middleware"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

type transactionStatusRequest struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// PremiumMembership opens a gateway order for the premium upgrade and
// records it as PENDING.
func (h *Handler) PremiumMembership(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	order, err := h.payments.CreateOrder(ctx, user.ID.Hex(), h.opts.PremiumAmount, h.opts.PremiumCurrency)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Something went wrong", "error": err.Error()})
		return
	}

	record := &models.Order{UserID: user.ID, OrderID: order.ID, Status: models.OrderStatusPending}
	if err := h.store.CreateOrder(ctx, record); err != nil {
		logger.Get().Error("Error saving order", zap.Error(err), zap.String("order_id", order.ID))
		c.JSON(http.StatusForbidden, gin.H{"message": "Something went wrong", "error": err.Error()})
		return
	}

	logger.Get().Info("Premium order created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("order_id", order.ID))
	c.JSON(http.StatusCreated, gin.H{"order": order, "key_id": h.payments.PublicKey()})
}

// UpdateTransactionStatus trusts the client-reported payment confirmation.
func (h *Handler) UpdateTransactionStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req transactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	order, err := h.store.GetOrderByOrderID(ctx, req.OrderID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && order.UserID != user.ID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}
	if err != nil {
		logger.Get().Error("Error fetching order", zap.Error(err), zap.String("order_id", req.OrderID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong", "error": err.Error()})
		return
	}

	if err := h.completeOrder(ctx, req.OrderID, req.PaymentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong", "error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Transaction Successful"})
}

// StripeWebhook handles events already verified by
// middleware.StripeWebhookVerifier.
func (h *Handler) StripeWebhook(c *gin.Context) {
	v, exists := c.Get(middleware.StripeEventKey)
	event, ok := v.(stripe.Event)
	if !exists || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing event"})
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			logger.Get().Error("Error parsing payment intent", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		paymentID := pi.ID
		if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
			paymentID = pi.LatestCharge.ID
		}

		err := h.completeOrder(c.Request.Context(), pi.ID, paymentID)
		if errors.Is(err, models.ErrNotFound) {
			// Not one of ours; acknowledge so Stripe stops retrying.
			logger.Get().Warn("Webhook for unknown order", zap.String("order_id", pi.ID))
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		logger.Get().Debug("Unhandled event type", zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// completeOrder marks the order SUCCESSFUL and upgrades its owner.
func (h *Handler) completeOrder(ctx context.Context, orderID, paymentID string) error {
	order, err := h.store.MarkOrderSuccessful(ctx, orderID, paymentID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Get().Error("Error updating order", zap.Error(err), zap.String("order_id", orderID))
		}
		return err
	}

	if err := h.store.SetPremium(ctx, order.UserID); err != nil {
		logger.Get().Error("Error setting premium flag", zap.Error(err), zap.String("user_id", order.UserID.Hex()))
		return err
	}

	logger.Get().Info("Premium membership activated",
		zap.String("user_id", order.UserID.Hex()),
		zap.String("order_id", orderID))
	return nil
}
