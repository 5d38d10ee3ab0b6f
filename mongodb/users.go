package mongodb

import (
	"context"
	"errors"
	"fmt"

	"expense-tracker/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	res, err := s.collection(UserCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.collection(UserCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return &user, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id bson.ObjectID, hash string) error {
	return s.updateUser(ctx, id, bson.M{"$set": bson.M{"password": hash}})
}

func (s *Store) SetPremium(ctx context.Context, id bson.ObjectID) error {
	return s.updateUser(ctx, id, bson.M{"$set": bson.M{"isPremiumUser": true}})
}

// IncrementTotalExpenses adds delta (which may be negative) to the user's
// running total.
func (s *Store) IncrementTotalExpenses(ctx context.Context, id bson.ObjectID, delta float64) error {
	return s.updateUser(ctx, id, bson.M{"$inc": bson.M{"totalExpenses": delta}})
}

func (s *Store) updateUser(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := s.collection(UserCollection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Leaderboard returns every user ordered by total spend, highest first.
func (s *Store) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "totalExpenses": 1}).
		SetSort(bson.D{{Key: "totalExpenses", Value: -1}})

	cursor, err := s.collection(UserCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.LeaderboardEntry{}
	for cursor.Next(ctx) {
		var entry models.LeaderboardEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("error decoding leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}
