// Package ws implements the realtime delivery core: the wire protocol, the
// connection registry, presence broadcast, and the per-connection command
// router.
package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kaiwa/internal/model"
)

// Command is a decoded client-to-server instruction carried as one text
// frame. The set is closed: SendMessage, MarkAsRead, Typing.
type Command interface {
	isCommand()
}

// SendMessage asks the server to persist and deliver a text message.
type SendMessage struct {
	Content    string    `json:"content"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

// MarkAsRead marks the listed messages as read by the sending connection's
// user.
type MarkAsRead struct {
	MessageIDs []uuid.UUID `json:"message_ids"`
}

// Typing notifies the receiver that the sender is typing.
type Typing struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
}

func (SendMessage) isCommand() {}
func (MarkAsRead) isCommand()  {}
func (Typing) isCommand()      {}

// ErrUnknownCommand is returned for frames that decode as JSON but do not
// carry exactly one known command tag.
var ErrUnknownCommand = errors.New("unknown command")

// DecodeCommand parses a text frame into a Command. Strictness applies at the
// envelope level only: unknown tags, missing tags, and frames carrying more
// than one tag are rejected, while unknown fields inside a known variant's
// payload are ignored.
func DecodeCommand(data []byte) (Command, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed command frame: %w", err)
	}
	if len(env) != 1 {
		return nil, ErrUnknownCommand
	}

	for tag, payload := range env {
		if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
			return nil, fmt.Errorf("command %q carries no payload", tag)
		}

		switch tag {
		case "SendMessage":
			var c SendMessage
			if err := json.Unmarshal(payload, &c); err != nil {
				return nil, fmt.Errorf("invalid SendMessage payload: %w", err)
			}
			return c, nil
		case "MarkAsRead":
			var c MarkAsRead
			if err := json.Unmarshal(payload, &c); err != nil {
				return nil, fmt.Errorf("invalid MarkAsRead payload: %w", err)
			}
			return c, nil
		case "Typing":
			var c Typing
			if err := json.Unmarshal(payload, &c); err != nil {
				return nil, fmt.Errorf("invalid Typing payload: %w", err)
			}
			return c, nil
		}
	}

	return nil, ErrUnknownCommand
}

// Event is a server-to-client notification. The set is closed:
// MessageReceived, MessageRead, UserTyping, UserOnline, UserOffline.
type Event interface {
	isEvent()
}

// MessageReceived delivers a freshly persisted message to its receiver.
type MessageReceived struct {
	Message model.Message
}

// MessageRead tells the original sender which of their messages UserID has
// read.
type MessageRead struct {
	MessageIDs []uuid.UUID `json:"message_ids"`
	UserID     uuid.UUID   `json:"user_id"`
}

// UserTyping tells the receiver that UserID is typing.
type UserTyping struct {
	UserID uuid.UUID `json:"user_id"`
}

// UserOnline announces that UserID connected.
type UserOnline struct {
	UserID uuid.UUID
}

// UserOffline announces that UserID disconnected.
type UserOffline struct {
	UserID uuid.UUID
}

func (MessageReceived) isEvent() {}
func (MessageRead) isEvent()     {}
func (UserTyping) isEvent()      {}
func (UserOnline) isEvent()      {}
func (UserOffline) isEvent()     {}

// EncodeEvent renders an Event as one externally tagged text frame.
// UserOnline / UserOffline carry the bare user id as their payload.
func EncodeEvent(event Event) ([]byte, error) {
	switch e := event.(type) {
	case MessageReceived:
		return json.Marshal(map[string]model.Message{"MessageReceived": e.Message})
	case MessageRead:
		return json.Marshal(map[string]MessageRead{"MessageRead": e})
	case UserTyping:
		return json.Marshal(map[string]UserTyping{"UserTyping": e})
	case UserOnline:
		return json.Marshal(map[string]uuid.UUID{"UserOnline": e.UserID})
	case UserOffline:
		return json.Marshal(map[string]uuid.UUID{"UserOffline": e.UserID})
	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}
}
