// Package models holds value objects exchanged with the expense API.
package models

// User describes the account the current session belongs to.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}
