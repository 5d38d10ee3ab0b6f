package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"expense-tracker/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	res, err := s.collection(ExpenseCollection).InsertOne(ctx, expense)
	if err != nil {
		return fmt.Errorf("error creating expense: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		expense.ID = id
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id bson.ObjectID) (*models.Expense, error) {
	var expense models.Expense
	err := s.collection(ExpenseCollection).FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&expense)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching expense %s: %w", id.Hex(), err)
	}
	return &expense, nil
}

// UpdateExpense overwrites the editable fields of an expense owned by
// expense.UserID.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	res, err := s.collection(ExpenseCollection).UpdateOne(ctx,
		bson.M{"_id": expense.ID, "userId": expense.UserID},
		bson.M{"$set": bson.M{
			"date":        expense.Date,
			"category":    expense.Category,
			"description": expense.Description,
			"amount":      expense.Amount,
		}},
	)
	if err != nil {
		return fmt.Errorf("error updating expense %s: %w", expense.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id bson.ObjectID) error {
	res, err := s.collection(ExpenseCollection).DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("error deleting expense %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID bson.ObjectID) ([]models.Expense, error) {
	return s.findExpenses(ctx, bson.M{"userId": userID}, options.Find())
}

// ListExpensesPage returns at most limit expenses after skipping offset, in
// insertion order.
func (s *Store) ListExpensesPage(ctx context.Context, userID bson.ObjectID, offset, limit int64) ([]models.Expense, error) {
	opts := options.Find().SetSkip(offset).SetLimit(limit)
	return s.findExpenses(ctx, bson.M{"userId": userID}, opts)
}

func (s *Store) CountExpenses(ctx context.Context, userID bson.ObjectID) (int64, error) {
	n, err := s.collection(ExpenseCollection).CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("error counting expenses: %w", err)
	}
	return n, nil
}

func (s *Store) ExpensesByDate(ctx context.Context, userID bson.ObjectID, date string) ([]models.Expense, error) {
	return s.findExpenses(ctx, bson.M{"userId": userID, "date": date}, options.Find())
}

// ExpensesByMonth matches dates of the form dd-<month>-yyyy.
func (s *Store) ExpensesByMonth(ctx context.Context, userID bson.ObjectID, month string) ([]models.Expense, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$regex": regexp.QuoteMeta("-" + month + "-")},
	}
	return s.findExpenses(ctx, filter, options.Find())
}

func (s *Store) findExpenses(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Expense, error) {
	opts.SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.collection(ExpenseCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching expenses: %w", err)
	}
	defer cursor.Close(ctx)

	expenses := []models.Expense{}
	for cursor.Next(ctx) {
		var expense models.Expense
		if err := cursor.Decode(&expense); err != nil {
			return nil, fmt.Errorf("error decoding expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return expenses, nil
}
