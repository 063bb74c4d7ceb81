package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message between two users. CreatedAt is assigned
// by the server on creation and never changes; ReadAt starts unset and is
// set exactly once when the receiver marks the message as read.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	SenderID    uuid.UUID   `json:"sender_id"`
	ReceiverID  uuid.UUID   `json:"receiver_id"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	CreatedAt   time.Time   `json:"created_at"`
	ReadAt      *time.Time  `json:"read_at"`
}

// ContentKind discriminates the closed set of message content variants.
type ContentKind string

const (
	KindText  ContentKind = "Text"
	KindFile  ContentKind = "File"
	KindVoice ContentKind = "Voice"
	KindVideo ContentKind = "Video"
)

// ContentType is the content-kind tagged union carried by every message.
// Text has no payload, File carries filename and size, Voice and Video carry
// a duration in seconds. The JSON form is externally tagged: "Text" is a
// bare string, the other variants are single-key objects.
type ContentType struct {
	Kind     ContentKind
	Filename string // File のみ
	Size     int64  // File のみ
	Duration int    // Voice / Video のみ
}

// TextContent returns the plain-text content kind.
func TextContent() ContentType {
	return ContentType{Kind: KindText}
}

// FileContent returns a file attachment content kind.
func FileContent(filename string, size int64) ContentType {
	return ContentType{Kind: KindFile, Filename: filename, Size: size}
}

// VoiceContent returns a voice message content kind.
func VoiceContent(duration int) ContentType {
	return ContentType{Kind: KindVoice, Duration: duration}
}

// VideoContent returns a video message content kind.
func VideoContent(duration int) ContentType {
	return ContentType{Kind: KindVideo, Duration: duration}
}

type filePayload struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type durationPayload struct {
	Duration int `json:"duration"`
}

// MarshalJSON encodes the union in its externally tagged form. An unknown
// kind is an error, never a default.
func (ct ContentType) MarshalJSON() ([]byte, error) {
	switch ct.Kind {
	case KindText:
		return json.Marshal(string(KindText))
	case KindFile:
		return json.Marshal(map[string]filePayload{
			string(KindFile): {Filename: ct.Filename, Size: ct.Size},
		})
	case KindVoice:
		return json.Marshal(map[string]durationPayload{
			string(KindVoice): {Duration: ct.Duration},
		})
	case KindVideo:
		return json.Marshal(map[string]durationPayload{
			string(KindVideo): {Duration: ct.Duration},
		})
	default:
		return nil, fmt.Errorf("unknown content kind: %q", ct.Kind)
	}
}

// UnmarshalJSON decodes the externally tagged form. Unknown tags and
// documents carrying more than one variant are rejected.
func (ct *ContentType) UnmarshalJSON(data []byte) error {
	// "Text" だけは素の文字列、それ以外は単一キーのオブジェクト
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if ContentKind(s) != KindText {
			return fmt.Errorf("unknown content kind: %q", s)
		}
		*ct = ContentType{Kind: KindText}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("invalid content type document: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("content type must carry exactly one variant, got %d", len(tagged))
	}

	for tag, payload := range tagged {
		switch ContentKind(tag) {
		case KindFile:
			var p filePayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return fmt.Errorf("invalid File payload: %w", err)
			}
			*ct = ContentType{Kind: KindFile, Filename: p.Filename, Size: p.Size}
		case KindVoice:
			var p durationPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return fmt.Errorf("invalid Voice payload: %w", err)
			}
			*ct = ContentType{Kind: KindVoice, Duration: p.Duration}
		case KindVideo:
			var p durationPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return fmt.Errorf("invalid Video payload: %w", err)
			}
			*ct = ContentType{Kind: KindVideo, Duration: p.Duration}
		default:
			return fmt.Errorf("unknown content kind: %q", tag)
		}
	}

	return nil
}

// Value implements driver.Valuer so the union is stored as a JSON document
// in a single column.
func (ct ContentType) Value() (driver.Value, error) {
	b, err := ct.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. A stored value that does not decode into the
// closed union fails the scan; query loops skip such rows.
func (ct *ContentType) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return ct.UnmarshalJSON(v)
	case string:
		return ct.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into ContentType", src)
	}
}
