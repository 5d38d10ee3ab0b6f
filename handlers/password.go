package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"expense-tracker/api/auth"
	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetPagePath = "/password/resetPasswordPage/"

type sendMailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password  string `json:"password"`
	RequestID string `json:"requestId"`
}

// SendMail issues a single-use reset request and mails its link.
func (h *Handler) SendMail(c *gin.Context) {
	var req sendMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Please provide the registered email!"})
		return
	}
	if err != nil {
		logger.Get().Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send reset password email"})
		return
	}

	resetReq := &models.ResetPasswordRequest{
		ID:       uuid.NewString(),
		IsActive: true,
		UserID:   user.ID,
	}
	if err := h.store.CreateResetRequest(ctx, resetReq); err != nil {
		logger.Get().Error("Error creating reset request", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send reset password email"})
		return
	}

	if err := h.mailer.SendResetLink(ctx, user.Email, h.resetLink(resetReq.ID)); err != nil {
		logger.Get().Error("Error sending reset mail", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send reset password email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Link for resetting the password has been successfully sent to your email!",
	})
}

func (h *Handler) resetLink(requestID string) string {
	return h.opts.BaseURL + resetPagePath + requestID
}

// ResetPassword consumes the reset request and stores the new password.
// The request id comes from the body or, for the bundled page, from the
// Referer it was posted from.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Password is required"})
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = requestIDFromReferer(c.Request.Referer())
	}
	if requestID == "" {
		c.JSON(http.StatusConflict, gin.H{"message": "Failed to change password!"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Get().Error("Error hashing password", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"message": "Failed to change password!"})
		return
	}

	ctx := c.Request.Context()
	resetReq, err := h.store.ConsumeResetRequest(ctx, requestID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Get().Error("Error consuming reset request", zap.Error(err), zap.String("request_id", requestID))
		}
		c.JSON(http.StatusConflict, gin.H{"message": "Failed to change password!"})
		return
	}

	if err := h.store.UpdatePassword(ctx, resetReq.UserID, hash); err != nil {
		logger.Get().Error("Error updating password", zap.Error(err), zap.String("user_id", resetReq.UserID.Hex()))
		// The link stays usable until a password change actually lands.
		if rerr := h.store.ReactivateResetRequest(context.WithoutCancel(ctx), requestID); rerr != nil {
			logger.Get().Error("Error reactivating reset request", zap.Error(rerr), zap.String("request_id", requestID))
		}
		c.JSON(http.StatusConflict, gin.H{"message": "Failed to change password!"})
		return
	}

	logger.Get().Info("Password changed", zap.String("user_id", resetReq.UserID.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "Successfully changed password"})
}

// requestIDFromReferer returns the last path segment of a
// /password/resetPasswordPage/<id> referer.
func requestIDFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || !strings.Contains(u.Path, resetPagePath) {
		return ""
	}
	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	if id == "." || id == "/" {
		return ""
	}
	return id
}
