// Package store persists chat messages and read state in MariaDB.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"kaiwa/internal/model"
)

// Store wraps the database handle for message persistence.
type Store struct {
	DB *sql.DB
}

// New creates a Store on top of an open database handle.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Save durably inserts a message. The content-kind union is serialized into
// the content_type column as a JSON document. read_at is left NULL.
func (s *Store) Save(msg *model.Message) error {
	_, err := s.DB.Exec(
		"INSERT INTO messages (id, sender_id, receiver_id, content, content_type, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.ContentType, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetUserMessages returns messages where the user is sender or receiver,
// newest first, paginated by limit/offset.
func (s *Store) GetUserMessages(userID uuid.UUID, limit, offset int) ([]model.Message, error) {
	rows, err := s.DB.Query(
		`SELECT id, sender_id, receiver_id, content, content_type, created_at, read_at
		 FROM messages
		 WHERE sender_id = ? OR receiver_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetConversationMessages returns the messages exchanged between the two
// users, newest first, paginated by limit/offset.
func (s *Store) GetConversationMessages(userID, otherUserID uuid.UUID, limit, offset int) ([]model.Message, error) {
	rows, err := s.DB.Query(
		`SELECT id, sender_id, receiver_id, content, content_type, created_at, read_at
		 FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?)
		    OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, otherUserID, otherUserID, userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkMessagesAsRead sets read_at to now for the listed messages addressed
// to receiverID. Ids that do not match, or that are already read, are left
// untouched, so applying the same set twice changes nothing.
func (s *Store) MarkMessagesAsRead(ids []uuid.UUID, receiverID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, receiverID)

	query := fmt.Sprintf(
		"UPDATE messages SET read_at = ? WHERE id IN (%s) AND receiver_id = ? AND read_at IS NULL",
		placeholders(len(ids)),
	)
	if _, err := s.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return nil
}

// GetUnreadCount returns the number of messages addressed to userID that
// have no read timestamp yet.
func (s *Store) GetUnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.DB.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND read_at IS NULL",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MessageSenders resolves, for the listed messages addressed to receiverID,
// which ids belong to which original sender. Ids that do not reference a
// message of receiverID are ignored.
func (s *Store) MessageSenders(ids []uuid.UUID, receiverID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	senders := make(map[uuid.UUID][]uuid.UUID)
	if len(ids) == 0 {
		return senders, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, receiverID)

	query := fmt.Sprintf(
		"SELECT id, sender_id FROM messages WHERE id IN (%s) AND receiver_id = ?",
		placeholders(len(ids)),
	)
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve message senders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, senderID uuid.UUID
		if err := rows.Scan(&id, &senderID); err != nil {
			log.Printf("[Store] ❌ Scan error: %v", err)
			continue
		}
		senders[senderID] = append(senders[senderID], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message senders: %w", err)
	}

	return senders, nil
}

// GetUsers returns all registered users ordered by username.
func (s *Store) GetUsers() ([]model.User, error) {
	rows, err := s.DB.Query(
		"SELECT id, username, email, password_hash, created_at, last_seen FROM users ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastSeen); err != nil {
			log.Printf("[Store] ❌ Scan error: %v", err)
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// scanMessages converts rows into messages. A row whose content_type value
// does not decode into the closed union is skipped rather than failing the
// whole query, so the result count can be lower than the stored count.
func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var readAt sql.NullTime
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.ContentType, &msg.CreatedAt, &readAt); err != nil {
			log.Printf("[Store] Skipping undecodable message row: %v", err)
			continue
		}
		if readAt.Valid {
			t := readAt.Time
			msg.ReadAt = &t
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
