package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of the bearer token issued at login.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
