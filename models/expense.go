package models

import "go.mongodb.org/mongo-driver/v2/bson"

// Expense dates are kept as the client sends them (dd-mm-yyyy) so that
// reports can match on the string directly.
type Expense struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Date        string        `bson:"date" json:"date"`
	Category    string        `bson:"category" json:"category"`
	Description string        `bson:"description" json:"description"`
	Amount      float64       `bson:"amount" json:"amount"`
	UserID      bson.ObjectID `bson:"userId" json:"userId"`
}
