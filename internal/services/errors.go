package services

import "errors"

var (
	// ErrEmailAlreadyExists is returned by registration when the email is taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
