package handlers

import (
	"context"
	"net/http"
	"time"

	"expense-tracker/api/middleware"
	"expense-tracker/api/models"
	"expense-tracker/api/payments"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store is the persistence the handlers need. *mongodb.Store satisfies it.
type Store interface {
	middleware.UserFinder
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id bson.ObjectID, hash string) error
	SetPremium(ctx context.Context, id bson.ObjectID) error
	IncrementTotalExpenses(ctx context.Context, id bson.ObjectID, delta float64) error
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, userID, id bson.ObjectID) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, userID, id bson.ObjectID) error
	ListExpenses(ctx context.Context, userID bson.ObjectID) ([]models.Expense, error)
	ListExpensesPage(ctx context.Context, userID bson.ObjectID, offset, limit int64) ([]models.Expense, error)
	CountExpenses(ctx context.Context, userID bson.ObjectID) (int64, error)
	ExpensesByDate(ctx context.Context, userID bson.ObjectID, date string) ([]models.Expense, error)
	ExpensesByMonth(ctx context.Context, userID bson.ObjectID, month string) ([]models.Expense, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	MarkOrderSuccessful(ctx context.Context, orderID, paymentID string) (*models.Order, error)

	CreateResetRequest(ctx context.Context, req *models.ResetPasswordRequest) error
	ConsumeResetRequest(ctx context.Context, id string) (*models.ResetPasswordRequest, error)
	ReactivateResetRequest(ctx context.Context, id string) error
}

// Mailer delivers password reset links, either directly or through the queue.
type Mailer interface {
	SendResetLink(ctx context.Context, to, link string) error
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, userID string, amount int64, currency string) (*payments.Order, error)
	PublicKey() string
}

type Options struct {
	JWTSecret           []byte
	JWTTTL              time.Duration
	BaseURL             string
	PremiumAmount       int64
	PremiumCurrency     string
	StripeWebhookSecret string
	ViewsDir            string
	PublicDir           string
}

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	store    Store
	mailer   Mailer
	payments PaymentGateway
	opts     Options
}

func New(store Store, mailer Mailer, gateway PaymentGateway, opts Options) *Handler {
	return &Handler{store: store, mailer: mailer, payments: gateway, opts: opts}
}

// currentUser fetches the user Auth stored. It writes the 401 itself.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return nil, false
	}
	return user, true
}
