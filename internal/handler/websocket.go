package handler

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// createUpgrader creates a WebSocket upgrader with the given allowed origins
func createUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedMap[origin]
		},
	}
}

// HandleWebSocket handles GET /api/ws. The identity comes from the user-id
// query parameter and is resolved against the auth layer before the upgrade;
// the realtime core performs no authentication of its own.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user-id"))
	if err != nil {
		log.Printf("[GET /api/ws] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.Auth.GetUserByID(userID)
	if err != nil {
		log.Printf("[GET /api/ws] ❌ Unknown user %s: %v", userID, err)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	upgrader := createUpgrader(h.Config.AllowedOrigins)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GET /api/ws] WebSocket upgrade error: %v", err)
		return
	}

	// 切断までブロックする（このゴルーチンが接続のタスク）
	h.Hub.HandleConnection(user.ID, conn)
}
