package handlers

import (
	"net/http"
	"time"

	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DateLayout is the dd-mm-yyyy form expense dates are stored in.
const DateLayout = "02-01-2006"

type dailyReportRequest struct {
	Date string `json:"date"`
}

type monthlyReportRequest struct {
	Month string `json:"month"`
}

// GetAllUsers returns the leaderboard. Premium is enforced by the route.
func (h *Handler) GetAllUsers(c *gin.Context) {
	entries, err := h.store.Leaderboard(c.Request.Context())
	if err != nil {
		logger.Get().Error("Error fetching leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) DailyReports(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dailyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if _, err := time.Parse(DateLayout, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be dd-mm-yyyy"})
		return
	}

	expenses, err := h.store.ExpensesByDate(c.Request.Context(), user.ID, req.Date)
	if err != nil {
		logger.Get().Error("Error fetching daily report", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *Handler) MonthlyReports(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req monthlyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !validMonth(req.Month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 01 and 12"})
		return
	}

	expenses, err := h.store.ExpensesByMonth(c.Request.Context(), user.ID, req.Month)
	if err != nil {
		logger.Get().Error("Error fetching monthly report", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// validMonth accepts exactly two digits in 01..12.
func validMonth(m string) bool {
	if len(m) != 2 || m[0] < '0' || m[0] > '1' || m[1] < '0' || m[1] > '9' {
		return false
	}
	n := int(m[0]-'0')*10 + int(m[1]-'0')
	return n >= 1 && n <= 12
}
