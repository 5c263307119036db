package models

import "time"

// Memo is a short tagged note owned by exactly one user. A zero ID means
// "not yet persisted". UserID and CreatedAt never change after creation.
type Memo struct {
	ID           int64     `json:"memoId"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	UserID       int64     `json:"userId"`
	CreatedAt    time.Time `json:"createdDate"`
	LastModified time.Time `json:"lastModifiedDate"`
}
