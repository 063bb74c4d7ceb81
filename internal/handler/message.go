package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"kaiwa/internal/model"
)

// defaultPageSize は limit 未指定時の1ページあたりの件数
const defaultPageSize = 50

type sendMessageRequest struct {
	Content    string    `json:"content"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

// userIDFromHeader resolves the caller's identity from the user-id header.
// Session verification lives in the auth layer; this layer trusts the
// resolved identity it is handed.
func userIDFromHeader(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.Header.Get("user-id"))
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// GetMessages handles GET /api/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/messages] Request received from %s", r.RemoteAddr)

	userID, err := userIDFromHeader(r)
	if err != nil {
		log.Printf("[GET /api/messages] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit, offset := pagination(r)

	messages, err := h.Store.GetUserMessages(userID, limit, offset)
	if err != nil {
		log.Printf("[GET /api/messages] ❌ Database error: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	log.Printf("[GET /api/messages] ✅ Returned %d messages", len(messages))
	writeJSON(w, http.StatusOK, messages)
}

// GetConversation handles GET /api/conversations/{userID}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/conversations] Request received from %s", r.RemoteAddr)

	userID, err := userIDFromHeader(r)
	if err != nil {
		log.Printf("[GET /api/conversations] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	otherID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		log.Printf("[GET /api/conversations] ❌ Invalid conversation partner ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit, offset := pagination(r)

	messages, err := h.Store.GetConversationMessages(userID, otherID, limit, offset)
	if err != nil {
		log.Printf("[GET /api/conversations] ❌ Database error: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	log.Printf("[GET /api/conversations] ✅ Returned %d messages", len(messages))
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/messages. The REST path persists only;
// realtime delivery happens over the WebSocket command instead.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/messages] Request received from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	senderID, err := userIDFromHeader(r)
	if err != nil {
		log.Printf("[POST /api/messages] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[POST /api/messages] ❌ Bad Request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Content == "" {
		log.Printf("[POST /api/messages] ❌ Bad Request: missing or empty content")
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	// Set server-side controlled fields
	msg := model.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		ContentType: model.TextContent(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.Store.Save(&msg); err != nil {
		log.Printf("[POST /api/messages] ❌ Database error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create message")
		return
	}

	log.Printf("[POST /api/messages] ✅ Created message: ID=%s", msg.ID)
	writeJSON(w, http.StatusCreated, msg)
}

// GetUnreadCount handles GET /api/messages/unread
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/messages/unread] Request received from %s", r.RemoteAddr)

	userID, err := userIDFromHeader(r)
	if err != nil {
		log.Printf("[GET /api/messages/unread] ❌ Invalid user ID: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	count, err := h.Store.GetUnreadCount(userID)
	if err != nil {
		log.Printf("[GET /api/messages/unread] ❌ Database error: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}
