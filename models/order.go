package models

import "go.mongodb.org/mongo-driver/v2/bson"

type Order struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	OrderID   string        `bson:"orderId" json:"orderId"`
	Status    OrderStatus   `bson:"status" json:"status"`
	PaymentID string        `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusSuccessful OrderStatus = "SUCCESSFUL"
)
