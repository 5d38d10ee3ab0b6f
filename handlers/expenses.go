package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// PageSize is the number of expenses per page of getAllExpenses/:page.
const PageSize = 3

const homePath = "/homePage"

// expenseRequest accepts the amount as a JSON number or a numeric string,
// since the browser form posts whatever the input holds.
type expenseRequest struct {
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

func (r expenseRequest) amount() (float64, error) {
	if r.Amount == "" {
		return 0, errors.New("amount is required")
	}
	return r.Amount.Float64()
}

func (h *Handler) AddExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	amount, err := req.amount()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.IncrementTotalExpenses(ctx, user.ID, amount); err != nil {
		logger.Get().Error("Error updating total expenses", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	expense := &models.Expense{
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
		UserID:      user.ID,
	}
	if err := h.store.CreateExpense(ctx, expense); err != nil {
		logger.Get().Error("Error creating expense", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.Redirect(http.StatusFound, homePath)
}

func (h *Handler) GetAllExpenses(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	expenses, err := h.store.ListExpenses(c.Request.Context(), user.ID)
	if err != nil {
		logger.Get().Error("Error listing expenses", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// GetExpensesPage serves one page of PageSize expenses and the page count.
func (h *Handler) GetExpensesPage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := strconv.ParseInt(c.Param("page"), 10, 64)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	ctx := c.Request.Context()
	total, err := h.store.CountExpenses(ctx, user.ID)
	if err != nil {
		logger.Get().Error("Error counting expenses", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	pages := totalPages(total)
	if page > pages {
		c.JSON(http.StatusOK, gin.H{"expenses": []models.Expense{}, "totalPages": pages})
		return
	}

	expenses, err := h.store.ListExpensesPage(ctx, user.ID, (page-1)*PageSize, PageSize)
	if err != nil {
		logger.Get().Error("Error listing expenses page", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "totalPages": pages})
}

func totalPages(count int64) int64 {
	return (count + PageSize - 1) / PageSize
}

func (h *Handler) EditExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	amount, err := req.amount()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	expense, ok := h.ownedExpense(c, user)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if delta := amount - expense.Amount; delta != 0 {
		if err := h.store.IncrementTotalExpenses(ctx, user.ID, delta); err != nil {
			logger.Get().Error("Error updating total expenses", zap.Error(err), zap.String("user_id", user.ID.Hex()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}
	}

	expense.Category = req.Category
	expense.Description = req.Description
	expense.Amount = amount
	if req.Date != "" {
		expense.Date = req.Date
	}
	if err := h.store.UpdateExpense(ctx, expense); err != nil {
		logger.Get().Error("Error updating expense", zap.Error(err), zap.String("expense_id", expense.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.Redirect(http.StatusFound, homePath)
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	expense, ok := h.ownedExpense(c, user)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.store.IncrementTotalExpenses(ctx, user.ID, -expense.Amount); err != nil {
		logger.Get().Error("Error updating total expenses", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if err := h.store.DeleteExpense(ctx, user.ID, expense.ID); err != nil {
		logger.Get().Error("Error deleting expense", zap.Error(err), zap.String("expense_id", expense.ID.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.Redirect(http.StatusFound, homePath)
}

// ownedExpense loads the :id expense if it belongs to user, writing a 404
// otherwise.
func (h *Handler) ownedExpense(c *gin.Context, user *models.User) (*models.Expense, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return nil, false
	}

	expense, err := h.store.GetExpense(c.Request.Context(), user.ID, id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return nil, false
	}
	if err != nil {
		logger.Get().Error("Error fetching expense", zap.Error(err), zap.String("expense_id", id.Hex()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return nil, false
	}
	return expense, true
}
