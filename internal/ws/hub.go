package ws

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kaiwa/internal/model"
)

const (
	// 書き込みは10秒で諦める
	writeWait = 10 * time.Second
	// pingPeriod must stay below the peer's read timeout
	pingPeriod = 54 * time.Second
)

// MessageStore is the persistence surface the hub needs. *store.Store
// satisfies it.
type MessageStore interface {
	Save(msg *model.Message) error
	MarkMessagesAsRead(ids []uuid.UUID, receiverID uuid.UUID) error
	MessageSenders(ids []uuid.UUID, receiverID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

// Hub drives realtime delivery. It owns the connection registry and runs
// one receive loop per live connection; the registry is the only state the
// loops share.
type Hub struct {
	registry *Registry
	store    MessageStore
}

// NewHub creates a hub backed by the given message store.
func NewHub(store MessageStore) *Hub {
	return &Hub{
		registry: NewRegistry(),
		store:    store,
	}
}

// Registry exposes the connection registry to collaborators that need
// online lookups.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// HandleConnection services one upgraded socket for an already authenticated
// user until it closes. It registers the outbound channel, announces
// presence, and processes inbound commands strictly in receipt order. The
// calling goroutine is the connection's task.
func (h *Hub) HandleConnection(userID uuid.UUID, conn *websocket.Conn) {
	send := make(chan []byte, sendBuffer)
	replaced := h.registry.Register(userID, send)

	go writePump(conn, send)

	// 再接続では相手側はオフラインを見ていないので再通知しない
	if !replaced {
		h.broadcastPresence(userID, true)
	}
	log.Printf("[WebSocket] User %s connected. Online users: %d", userID, h.registry.Count())

	h.readLoop(userID, conn)

	// 置き換え済みの接続なら何もしない（新しい接続側がまだオンライン）
	if h.registry.Unregister(userID, send) {
		h.broadcastPresence(userID, false)
	}
	log.Printf("[WebSocket] User %s disconnected. Online users: %d", userID, h.registry.Count())
}

// readLoop reads frames until the socket faults or closes. Non-text frames
// and undecodable frames are dropped without any feedback to the peer; the
// connection stays open.
func (h *Hub) readLoop(userID uuid.UUID, conn *websocket.Conn) {
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		cmd, err := DecodeCommand(data)
		if err != nil {
			log.Printf("[WebSocket] Discarded malformed frame from user %s: %v", userID, err)
			continue
		}

		h.handleCommand(userID, cmd)
	}
}

// handleCommand executes one decoded command on behalf of senderID.
func (h *Hub) handleCommand(senderID uuid.UUID, cmd Command) {
	switch c := cmd.(type) {
	case SendMessage:
		h.handleSendMessage(senderID, c)
	case MarkAsRead:
		h.handleMarkAsRead(senderID, c)
	case Typing:
		h.sendEvent(c.ReceiverID, UserTyping{UserID: senderID})
	default:
		// DecodeCommand が返す型はここで尽きている
		log.Printf("[WebSocket] ❌ Unhandled command type %T", cmd)
	}
}

// handleSendMessage persists the message and, only after durable storage,
// notifies the receiver. The sender gets no confirmation either way; a
// persistence failure is visible in the server log only.
func (h *Hub) handleSendMessage(senderID uuid.UUID, cmd SendMessage) {
	msg := model.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		ReceiverID:  cmd.ReceiverID,
		Content:     cmd.Content,
		ContentType: model.TextContent(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.Save(&msg); err != nil {
		log.Printf("[WebSocket] ❌ Failed to save message from user %s: %v", senderID, err)
		return
	}

	h.sendEvent(cmd.ReceiverID, MessageReceived{Message: msg})
}

// handleMarkAsRead persists read timestamps for the reader's messages and
// then notifies each original sender which of their messages were read.
func (h *Hub) handleMarkAsRead(readerID uuid.UUID, cmd MarkAsRead) {
	if len(cmd.MessageIDs) == 0 {
		return
	}

	senders, err := h.store.MessageSenders(cmd.MessageIDs, readerID)
	if err != nil {
		log.Printf("[WebSocket] ❌ Failed to resolve senders for read marks from user %s: %v", readerID, err)
		return
	}

	if err := h.store.MarkMessagesAsRead(cmd.MessageIDs, readerID); err != nil {
		log.Printf("[WebSocket] ❌ Failed to mark messages as read for user %s: %v", readerID, err)
		return
	}

	for senderID, ids := range senders {
		h.sendEvent(senderID, MessageRead{MessageIDs: ids, UserID: readerID})
	}
}

// sendEvent encodes and enqueues an event for one user, best-effort.
func (h *Hub) sendEvent(userID uuid.UUID, event Event) {
	frame, err := EncodeEvent(event)
	if err != nil {
		log.Printf("[WebSocket] ❌ Failed to encode event: %v", err)
		return
	}
	h.registry.SendTo(userID, frame)
}

// writePump drains the outbound channel onto the socket and keeps the
// connection alive with pings. It exits when the channel is closed or a
// write fails.
func writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
