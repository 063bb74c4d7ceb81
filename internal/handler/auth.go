package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"kaiwa/internal/auth"
	"kaiwa/internal/model"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID uuid.UUID  `json:"user_id"`
	User   model.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/auth/register] Request received from %s", r.RemoteAddr)

	// リクエストボディサイズを1MBに制限
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[POST /api/auth/register] ❌ Bad Request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		log.Printf("[POST /api/auth/register] ❌ Validation failed: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid registration data")
		return
	}

	user, err := h.Auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		log.Printf("[POST /api/auth/register] ❌ Failed to register: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	log.Printf("[POST /api/auth/register] ✅ Registered user: ID=%s, Username=%q", user.ID, user.Username)
	writeJSON(w, http.StatusCreated, loginResponse{UserID: user.ID, User: *user})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/auth/login] Request received from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[POST /api/auth/login] ❌ Bad Request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		log.Printf("[POST /api/auth/login] ❌ Validation failed: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid login data")
		return
	}

	user, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Printf("[POST /api/auth/login] ❌ Invalid credentials for %s", req.Email)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		log.Printf("[POST /api/auth/login] ❌ Failed to login: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Printf("[POST /api/auth/login] ✅ Logged in user: ID=%s", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{UserID: user.ID, User: *user})
}

// GetUsers handles GET /api/users
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/users] Request received from %s", r.RemoteAddr)

	users, err := h.Store.GetUsers()
	if err != nil {
		log.Printf("[GET /api/users] ❌ Database error: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	log.Printf("[GET /api/users] ✅ Returned %d users", len(users))
	writeJSON(w, http.StatusOK, users)
}
