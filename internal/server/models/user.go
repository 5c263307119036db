// Package models holds the persisted entities and transient query types of
// the memo service.
package models

import "time"

// User is a registered account. Username is immutable after registration;
// Email and ExternalID are optional and, when set, unique across all users.
type User struct {
	ID           int64      `json:"userId"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Email        *string    `json:"email,omitempty"`
	ExternalID   *string    `json:"externalId,omitempty"`
	CreatedAt    time.Time  `json:"createdDate"`
	LastModified time.Time  `json:"lastModifiedDate"`
}

// AccountUpdate carries the mutable account fields for the update operation.
// CurrentPassword must match the stored hash before anything is changed.
// Nil pointers mean "leave as is".
type AccountUpdate struct {
	UserID          int64   `json:"userId"`
	CurrentPassword string  `json:"currentPassword"`
	Password        *string `json:"password,omitempty"`
	Email           *string `json:"email,omitempty"`
	ExternalID      *string `json:"externalId,omitempty"`
}
