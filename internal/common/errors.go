// Package common defines sentinel errors shared by repositories, services,
// and the HTTP layer. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// Service-level errors.
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrUnauthorized    = errors.New("not the resource owner")
	ErrInternal        = errors.New("internal error")

	// Auth errors (invalid, expired, or forged token).
	ErrInvalidToken = errors.New("invalid token")

	// Mail delivery failure. Kept internal: recovery responses collapse it
	// into a plain "false" so account existence cannot be probed.
	ErrDelivery = errors.New("delivery failed")
)
