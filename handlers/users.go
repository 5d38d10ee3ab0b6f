package handlers

import (
	"errors"
	"net/http"
	"strings"

	"expense-tracker/api/auth"
	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type signupRequest struct {
	Name     string `json:"nameValue"`
	Email    string `json:"emailValue"`
	Password string `json:"passwordValue"`
}

type loginRequest struct {
	Email    string `json:"emailValue"`
	Password string `json:"passwordValue"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, email and password are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetUserByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "This email is already taken. Please choose another one."})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		logger.Get().Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Get().Error("Error hashing password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, Password: hash}
	if err := h.store.CreateUser(ctx, user); err != nil {
		// The unique index catches a concurrent signup with the same email.
		if errors.Is(err, models.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "This email is already taken. Please choose another one."})
			return
		}
		logger.Get().Error("Error creating user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}

	logger.Get().Info("User signed up", zap.String("user_id", user.ID.Hex()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signup Successful!"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User doesn't exist!"})
		return
	}
	if err != nil {
		logger.Get().Error("Error looking up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}

	if !auth.CheckPassword(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Password Incorrect!"})
		return
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Email, h.opts.JWTSecret, h.opts.JWTTTL)
	if err != nil {
		logger.Get().Error("Error generating token", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login Successful!", "token": token})
}

// IsPremiumUser reports the flag of the authenticated user.
func (h *Handler) IsPremiumUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"isPremiumUser": user.IsPremiumUser})
}
