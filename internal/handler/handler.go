package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"kaiwa/internal/auth"
	"kaiwa/internal/config"
	"kaiwa/internal/store"
	"kaiwa/internal/ws"
)

// Handler holds application dependencies
type Handler struct {
	DB       *sql.DB
	Config   config.Config
	Store    *store.Store
	Auth     *auth.Auth
	Hub      *ws.Hub
	Validate *validator.Validate
}

// New creates a new Handler with the given dependencies
func New(db *sql.DB, cfg config.Config) *Handler {
	st := store.New(db)
	return &Handler{
		DB:       db,
		Config:   cfg,
		Store:    st,
		Auth:     auth.New(db),
		Hub:      ws.NewHub(st),
		Validate: validator.New(),
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// 認証
	api.HandleFunc("/auth/register", h.Register).Methods("POST")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")

	// ユーザー
	api.HandleFunc("/users", h.GetUsers).Methods("GET")

	// メッセージ
	api.HandleFunc("/messages", h.GetMessages).Methods("GET")
	api.HandleFunc("/messages", h.SendMessage).Methods("POST")
	api.HandleFunc("/messages/unread", h.GetUnreadCount).Methods("GET")
	api.HandleFunc("/conversations/{userID}", h.GetConversation).Methods("GET")

	// ファイル
	api.HandleFunc("/upload", h.UploadFile).Methods("POST")
	api.PathPrefix("/files/").Handler(
		http.StripPrefix("/api/files/", http.FileServer(http.Dir(h.Config.StoragePath))),
	).Methods("GET")

	// WebSocket
	api.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
