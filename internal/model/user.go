package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. The realtime core only ever refers
// to users by ID; the rows themselves belong to the auth layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}
