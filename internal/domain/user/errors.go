package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidUserRole    = errors.New("invalid user role")
)
