package mongodb

import (
	"context"
	"fmt"

	"expense-tracker/api/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

var (
	UserCollection          string = "users"
	ExpenseCollection       string = "expenses"
	OrderCollection         string = "orders"
	ResetPasswordCollection string = "resetpasswordrequests"
)

// Store is the document store behind every handler.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		logger.Get().Error("failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		logger.Get().Error("failed to ping MongoDB", zap.Error(err))
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	logger.Get().Info("successfully connected to MongoDB", zap.String("database", database))
	return &Store{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique indexes the handlers rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{UserCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{UserCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "totalExpenses", Value: -1}},
		}},
		{ExpenseCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		}},
		{OrderCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{ResetPasswordCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("error creating index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB", zap.Error(err))
		return
	}
	logger.Get().Info("successfully disconnected from MongoDB")
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}
