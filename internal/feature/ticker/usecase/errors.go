// Package usecase implements the business logic for the ticker feature.
package usecase

import "errors"

var (
	// ErrUnauthorized is returned when the supplied admin password does not match.
	ErrUnauthorized = errors.New("wrong password")

	// ErrInvalidInput is returned when a request field is missing or cannot be parsed.
	ErrInvalidInput = errors.New("invalid input")
)
