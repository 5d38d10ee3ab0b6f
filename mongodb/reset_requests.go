package mongodb

import (
	"context"
	"errors"
	"fmt"

	"expense-tracker/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func (s *Store) CreateResetRequest(ctx context.Context, req *models.ResetPasswordRequest) error {
	res, err := s.collection(ResetPasswordCollection).InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("error creating reset request: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		req.ObjectID = id
	}
	return nil
}

// ConsumeResetRequest deactivates an active request in a single
// find-and-update, so two concurrent resets cannot both succeed.
func (s *Store) ConsumeResetRequest(ctx context.Context, id string) (*models.ResetPasswordRequest, error) {
	filter := bson.M{"id": id, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false}}

	var req models.ResetPasswordRequest
	err := s.collection(ResetPasswordCollection).FindOneAndUpdate(ctx, filter, update).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error consuming reset request: %w", err)
	}
	req.IsActive = false
	return &req, nil
}

// ReactivateResetRequest undoes ConsumeResetRequest when the password
// write that followed it failed.
func (s *Store) ReactivateResetRequest(ctx context.Context, id string) error {
	filter := bson.M{"id": id, "isActive": false}
	update := bson.M{"$set": bson.M{"isActive": true}}

	res, err := s.collection(ResetPasswordCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error reactivating reset request: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
