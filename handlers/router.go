package handlers

import (
	"net/http"
	"path/filepath"

	"expense-tracker/api/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the shared middleware and every route.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger, middleware.Cors)
	h.Register(router)
	return router
}

// Register mounts the application routes on r.
func (h *Handler) Register(r gin.IRouter) {
	authed := middleware.Auth(h.opts.JWTSecret, h.store)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.opts.PublicDir != "" {
		r.Static("/js", filepath.Join(h.opts.PublicDir, "js"))
	}

	// User routes answer both at the root and under /user.
	for _, prefix := range []string{"/", "/user"} {
		users := r.Group(prefix)
		{
			users.GET("", h.page("sign-up.html"))
			users.GET("/signup", h.page("sign-up.html"))
			users.GET("/login", h.page("login.html"))
			users.POST("/signup", h.Signup)
			users.POST("/login", h.Login)
			users.GET("/isPremiumUser", authed, h.IsPremiumUser)
		}
	}

	password := r.Group("/password")
	{
		password.GET("/forgotPasswordPage", h.page("forgotPassword.html"))
		password.POST("/sendMail", h.SendMail)
		password.GET("/resetPasswordPage/:requestId", h.page("resetPassword.html"))
		password.POST("/resetPassword", h.ResetPassword)
	}

	for _, prefix := range []string{"/homePage", "/expense"} {
		expenses := r.Group(prefix)
		{
			expenses.GET("", h.page("homePage.html"))
			expenses.GET("/getAllExpenses", authed, h.GetAllExpenses)
			expenses.GET("/getAllExpenses/:page", authed, h.GetExpensesPage)
			expenses.GET("/deleteExpense/:id", authed, h.DeleteExpense)
			expenses.POST("/addExpense", authed, h.AddExpense)
			expenses.POST("/editExpense/:id", authed, h.EditExpense)
		}
	}

	purchase := r.Group("/purchase")
	{
		purchase.GET("/premiumMembership", authed, h.PremiumMembership)
		purchase.POST("/updateTransactionStatus", authed, h.UpdateTransactionStatus)
		purchase.POST("/webhook", middleware.StripeWebhookVerifier(h.opts.StripeWebhookSecret), h.StripeWebhook)
	}

	premium := r.Group("/premium")
	{
		premium.GET("/getLeaderboardPage", h.page("leaderboard.html"))
		premium.GET("/getAllUsers", authed, middleware.RequirePremium, h.GetAllUsers)
	}

	reports := r.Group("/reports")
	{
		reports.GET("/getReportsPage", h.page("reports.html"))
		reports.POST("/dailyReports", authed, h.DailyReports)
		reports.POST("/monthlyReports", authed, h.MonthlyReports)
	}
}
