package models

import "go.mongodb.org/mongo-driver/v2/bson"

// ResetPasswordRequest authorizes exactly one password change for UserID.
type ResetPasswordRequest struct {
	ObjectID bson.ObjectID `bson:"_id,omitempty" json:"-"`
	ID       string        `bson:"id" json:"id"`
	IsActive bool          `bson:"isActive" json:"isActive"`
	UserID   bson.ObjectID `bson:"userId" json:"userId"`
}

// MailJob is a queued password reset mail.
type MailJob struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}
