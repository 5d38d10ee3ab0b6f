package models

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already taken")
	ErrDuplicate  = errors.New("duplicate key")
)
