package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"expense-tracker/api/models"
	"expense-tracker/api/payments"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// memStore is an in-memory Store used by the handler tests.
type memStore struct {
	mu       sync.Mutex
	users    map[bson.ObjectID]models.User
	expenses []models.Expense
	orders   map[string]models.Order
	resets   map[string]models.ResetPasswordRequest

	failIncrement bool
	// failPasswordUpdates makes the next n UpdatePassword calls fail.
	failPasswordUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[bson.ObjectID]models.User{},
		orders: map[string]models.Order{},
		resets: map[string]models.ResetPasswordRequest{},
	}
}

func (m *memStore) GetUserByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	user.ID = bson.NewObjectID()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdatePassword(_ context.Context, id bson.ObjectID, hash string) error {
	m.mu.Lock()
	if m.failPasswordUpdates > 0 {
		m.failPasswordUpdates--
		m.mu.Unlock()
		return errors.New("write concern timeout")
	}
	m.mu.Unlock()
	return m.updateUser(id, func(u *models.User) { u.Password = hash })
}

func (m *memStore) SetPremium(_ context.Context, id bson.ObjectID) error {
	return m.updateUser(id, func(u *models.User) { u.IsPremiumUser = true })
}

func (m *memStore) IncrementTotalExpenses(_ context.Context, id bson.ObjectID, delta float64) error {
	if m.failIncrement {
		return errors.New("increment failed")
	}
	return m.updateUser(id, func(u *models.User) { u.TotalExpenses += delta })
}

func (m *memStore) updateUser(id bson.ObjectID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

func (m *memStore) Leaderboard(_ context.Context) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []models.LeaderboardEntry{}
	for _, u := range m.users {
		entries = append(entries, models.LeaderboardEntry{Name: u.Name, TotalExpenses: u.TotalExpenses})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TotalExpenses > entries[j].TotalExpenses })
	return entries, nil
}

func (m *memStore) CreateExpense(_ context.Context, expense *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense.ID = bson.NewObjectID()
	m.expenses = append(m.expenses, *expense)
	return nil
}

func (m *memStore) GetExpense(_ context.Context, userID, id bson.ObjectID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdateExpense(_ context.Context, expense *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == expense.ID && e.UserID == expense.UserID {
			m.expenses[i] = *expense
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memStore) DeleteExpense(_ context.Context, userID, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memStore) filter(userID bson.ObjectID, keep func(models.Expense) bool) []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Expense{}
	for _, e := range m.expenses {
		if e.UserID == userID && keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) ListExpenses(_ context.Context, userID bson.ObjectID) ([]models.Expense, error) {
	return m.filter(userID, func(models.Expense) bool { return true }), nil
}

func (m *memStore) ListExpensesPage(ctx context.Context, userID bson.ObjectID, offset, limit int64) ([]models.Expense, error) {
	all, _ := m.ListExpenses(ctx, userID)
	if offset >= int64(len(all)) {
		return []models.Expense{}, nil
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end], nil
}

func (m *memStore) CountExpenses(ctx context.Context, userID bson.ObjectID) (int64, error) {
	all, _ := m.ListExpenses(ctx, userID)
	return int64(len(all)), nil
}

func (m *memStore) ExpensesByDate(_ context.Context, userID bson.ObjectID, date string) ([]models.Expense, error) {
	return m.filter(userID, func(e models.Expense) bool { return e.Date == date }), nil
}

func (m *memStore) ExpensesByMonth(_ context.Context, userID bson.ObjectID, month string) ([]models.Expense, error) {
	return m.filter(userID, func(e models.Expense) bool { return strings.Contains(e.Date, "-"+month+"-") }), nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.OrderID]; ok {
		return models.ErrDuplicate
	}
	order.ID = bson.NewObjectID()
	m.orders[order.OrderID] = *order
	return nil
}

func (m *memStore) GetOrderByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) MarkOrderSuccessful(_ context.Context, orderID, paymentID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	o.Status = models.OrderStatusSuccessful
	o.PaymentID = paymentID
	m.orders[orderID] = o
	return &o, nil
}

func (m *memStore) CreateResetRequest(_ context.Context, req *models.ResetPasswordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[req.ID] = *req
	return nil
}

func (m *memStore) ConsumeResetRequest(_ context.Context, id string) (*models.ResetPasswordRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[id]
	if !ok || !r.IsActive {
		return nil, models.ErrNotFound
	}
	r.IsActive = false
	m.resets[id] = r
	return &r, nil
}

func (m *memStore) ReactivateResetRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[id]
	if !ok || r.IsActive {
		return models.ErrNotFound
	}
	r.IsActive = true
	m.resets[id] = r
	return nil
}

type sentMail struct {
	to, link string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendResetLink(_ context.Context, to, link string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, link: link})
	return nil
}

type fakeGateway struct {
	next int
	err  error
}

func (f *fakeGateway) CreateOrder(_ context.Context, _ string, amount int64, currency string) (*payments.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	return &payments.Order{
		ID:           "pi_test_" + string(rune('0'+f.next)),
		Amount:       amount,
		Currency:     currency,
		Status:       "requires_payment_method",
		ClientSecret: "secret",
	}, nil
}

func (f *fakeGateway) PublicKey() string {
	return "pk_test"
}
