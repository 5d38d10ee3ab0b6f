package models

import "go.mongodb.org/mongo-driver/v2/bson"

type User struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string        `bson:"name" json:"name"`
	Email         string        `bson:"email" json:"email"`
	Password      string        `bson:"password" json:"-"`
	IsPremiumUser bool          `bson:"isPremiumUser" json:"isPremiumUser"`
	TotalExpenses float64       `bson:"totalExpenses" json:"totalExpenses"`
}

// LeaderboardEntry is the projection of a User shown on the leaderboard.
type LeaderboardEntry struct {
	Name          string  `bson:"name" json:"name"`
	TotalExpenses float64 `bson:"totalExpenses" json:"totalExpenses"`
}
