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

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	res, err := s.collection(OrderCollection).InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("error creating order: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *Store) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.collection(OrderCollection).FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching order %s: %w", orderID, err)
	}
	return &order, nil
}

// MarkOrderSuccessful records the gateway payment and returns the updated order.
func (s *Store) MarkOrderSuccessful(ctx context.Context, orderID, paymentID string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"status":    models.OrderStatusSuccessful,
		"paymentId": paymentID,
	}}

	var order models.Order
	err := s.collection(OrderCollection).FindOneAndUpdate(ctx, bson.M{"orderId": orderID}, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error updating order %s: %w", orderID, err)
	}
	return &order, nil
}
