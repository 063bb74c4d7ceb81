// Package auth handles account registration and login against the users
// table. The realtime core never calls it directly; identities arrive there
// already resolved.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kaiwa/internal/model"
)

// ErrInvalidCredentials covers unknown accounts and password mismatches
// alike, so a caller cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Auth verifies and creates user accounts.
type Auth struct {
	DB *sql.DB
}

// New creates an Auth on top of an open database handle.
func New(db *sql.DB) *Auth {
	return &Auth{DB: db}
}

// Register creates a new account with a bcrypt password hash.
func (a *Auth) Register(username, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastSeen:     now,
	}

	_, err = a.DB.Exec(
		"INSERT INTO users (id, username, email, password_hash, created_at, last_seen) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and updates last_seen on success.
func (a *Auth) Login(email, password string) (*model.User, error) {
	user, err := a.getUser("email = ?", email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := a.DB.Exec("UPDATE users SET last_seen = ? WHERE id = ?", now, user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last_seen: %w", err)
	}
	user.LastSeen = now

	return user, nil
}

// GetUserByID resolves an identity, typically for the WebSocket upgrade.
func (a *Auth) GetUserByID(id uuid.UUID) (*model.User, error) {
	return a.getUser("id = ?", id)
}

func (a *Auth) getUser(where string, arg interface{}) (*model.User, error) {
	var user model.User
	err := a.DB.QueryRow(
		"SELECT id, username, email, password_hash, created_at, last_seen FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
