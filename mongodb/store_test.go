package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"expense-tracker/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// StoreTestSuite runs against a real MongoDB named by MONGO_TEST_URI.
type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		s.T().Skip("MONGO_TEST_URI not set, skipping MongoDB store tests")
	}

	s.ctx = context.Background()
	dbName := fmt.Sprintf("expense_tracker_test_%d", time.Now().UnixNano())
	store, err := Connect(s.ctx, uri, dbName)
	require.NoError(s.T(), err, "failed to connect to test database")
	require.NoError(s.T(), store.EnsureIndexes(s.ctx))
	s.store = store
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.db.Drop(s.ctx)
		s.store.Close(s.ctx)
		s.store = nil
	}
}

func (s *StoreTestSuite) createUser(name, email string) *models.User {
	user := &models.User{Name: name, Email: email, Password: "hash"}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, user))
	require.False(s.T(), user.ID.IsZero())
	return user
}

func (s *StoreTestSuite) TestCreateUser_DuplicateEmail() {
	s.createUser("Helal", "helal@zohomail.in")

	err := s.store.CreateUser(s.ctx, &models.User{Name: "Other", Email: "helal@zohomail.in", Password: "x"})
	assert.ErrorIs(s.T(), err, models.ErrEmailTaken)
}

func (s *StoreTestSuite) TestGetUser_NotFound() {
	_, err := s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, models.ErrNotFound)

	_, err = s.store.GetUserByID(s.ctx, bson.NewObjectID())
	assert.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *StoreTestSuite) TestIncrementTotalExpenses() {
	user := s.createUser("Helal", "helal@zohomail.in")

	require.NoError(s.T(), s.store.IncrementTotalExpenses(s.ctx, user.ID, 120.5))
	require.NoError(s.T(), s.store.IncrementTotalExpenses(s.ctx, user.ID, -20.5))

	got, err := s.store.GetUserByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100.0, got.TotalExpenses)
	assert.False(s.T(), got.IsPremiumUser)

	assert.ErrorIs(s.T(), s.store.IncrementTotalExpenses(s.ctx, bson.NewObjectID(), 1), models.ErrNotFound)
}

func (s *StoreTestSuite) TestLeaderboardOrder() {
	a := s.createUser("A", "a@example.com")
	b := s.createUser("B", "b@example.com")
	s.createUser("C", "c@example.com")
	require.NoError(s.T(), s.store.IncrementTotalExpenses(s.ctx, a.ID, 10))
	require.NoError(s.T(), s.store.IncrementTotalExpenses(s.ctx, b.ID, 50))

	entries, err := s.store.Leaderboard(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), "B", entries[0].Name)
	assert.Equal(s.T(), "A", entries[1].Name)
	assert.Equal(s.T(), "C", entries[2].Name)
}

func (s *StoreTestSuite) TestExpensePagingAndReports() {
	user := s.createUser("Helal", "helal@zohomail.in")
	other := s.createUser("Other", "other@example.com")

	dates := []string{"01-01-2024", "15-01-2024", "02-02-2024", "15-01-2024", "30-12-2024"}
	for i, d := range dates {
		require.NoError(s.T(), s.store.CreateExpense(s.ctx, &models.Expense{
			Date: d, Category: "food", Description: fmt.Sprintf("e%d", i), Amount: float64(i + 1), UserID: user.ID,
		}))
	}
	require.NoError(s.T(), s.store.CreateExpense(s.ctx, &models.Expense{
		Date: "15-01-2024", Category: "food", Description: "not mine", Amount: 99, UserID: other.ID,
	}))

	n, err := s.store.CountExpenses(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), n)

	page2, err := s.store.ListExpensesPage(s.ctx, user.ID, 3, 3)
	require.NoError(s.T(), err)
	require.Len(s.T(), page2, 2)
	assert.Equal(s.T(), "e3", page2[0].Description)
	assert.Equal(s.T(), "e4", page2[1].Description)

	daily, err := s.store.ExpensesByDate(s.ctx, user.ID, "15-01-2024")
	require.NoError(s.T(), err)
	assert.Len(s.T(), daily, 2)

	monthly, err := s.store.ExpensesByMonth(s.ctx, user.ID, "01")
	require.NoError(s.T(), err)
	assert.Len(s.T(), monthly, 3)

	december, err := s.store.ExpensesByMonth(s.ctx, user.ID, "12")
	require.NoError(s.T(), err)
	require.Len(s.T(), december, 1)
	assert.Equal(s.T(), "30-12-2024", december[0].Date)
}

func (s *StoreTestSuite) TestExpenseOwnership() {
	owner := s.createUser("Owner", "owner@example.com")
	intruder := s.createUser("Intruder", "intruder@example.com")

	expense := &models.Expense{Date: "01-01-2024", Category: "rent", Description: "flat", Amount: 500, UserID: owner.ID}
	require.NoError(s.T(), s.store.CreateExpense(s.ctx, expense))

	_, err := s.store.GetExpense(s.ctx, intruder.ID, expense.ID)
	assert.ErrorIs(s.T(), err, models.ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteExpense(s.ctx, intruder.ID, expense.ID), models.ErrNotFound)

	expense.Amount = 450
	require.NoError(s.T(), s.store.UpdateExpense(s.ctx, expense))
	got, err := s.store.GetExpense(s.ctx, owner.ID, expense.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 450.0, got.Amount)

	require.NoError(s.T(), s.store.DeleteExpense(s.ctx, owner.ID, expense.ID))
	_, err = s.store.GetExpense(s.ctx, owner.ID, expense.ID)
	assert.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *StoreTestSuite) TestOrders() {
	user := s.createUser("Buyer", "buyer@example.com")

	order := &models.Order{UserID: user.ID, OrderID: "pi_123", Status: models.OrderStatusPending}
	require.NoError(s.T(), s.store.CreateOrder(s.ctx, order))
	assert.ErrorIs(s.T(), s.store.CreateOrder(s.ctx, &models.Order{UserID: user.ID, OrderID: "pi_123"}), models.ErrDuplicate)

	updated, err := s.store.MarkOrderSuccessful(s.ctx, "pi_123", "pay_456")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.OrderStatusSuccessful, updated.Status)
	assert.Equal(s.T(), "pay_456", updated.PaymentID)
	assert.Equal(s.T(), user.ID, updated.UserID)

	_, err = s.store.MarkOrderSuccessful(s.ctx, "pi_missing", "pay")
	assert.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *StoreTestSuite) TestResetRequestIsSingleUse() {
	user := s.createUser("Forgetful", "forgetful@example.com")

	req := &models.ResetPasswordRequest{ID: "6f1c9a52-4f7e-4d39-9d5f-2a0f3b2c1d00", IsActive: true, UserID: user.ID}
	require.NoError(s.T(), s.store.CreateResetRequest(s.ctx, req))

	consumed, err := s.store.ConsumeResetRequest(s.ctx, req.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, consumed.UserID)
	assert.False(s.T(), consumed.IsActive)

	_, err = s.store.ConsumeResetRequest(s.ctx, req.ID)
	assert.ErrorIs(s.T(), err, models.ErrNotFound)
}

func (s *StoreTestSuite) TestReactivateResetRequest() {
	user := s.createUser("Forgetful", "forgetful@example.com")

	req := &models.ResetPasswordRequest{ID: "0b7e3c1a-9d2f-4a68-8c15-5f4e2d1b3a90", IsActive: true, UserID: user.ID}
	require.NoError(s.T(), s.store.CreateResetRequest(s.ctx, req))

	_, err := s.store.ConsumeResetRequest(s.ctx, req.ID)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.ReactivateResetRequest(s.ctx, req.ID))

	again, err := s.store.ConsumeResetRequest(s.ctx, req.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, again.UserID)

	assert.ErrorIs(s.T(), s.store.ReactivateResetRequest(s.ctx, "missing"), models.ErrNotFound)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
