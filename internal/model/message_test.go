package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestContentTypeJSON_Text Text は素の文字列としてエンコードされる
func TestContentTypeJSON_Text(t *testing.T) {
	b, err := json.Marshal(TextContent())
	if err != nil {
		t.Fatalf("Failed to marshal Text content: %v", err)
	}
	if string(b) != `"Text"` {
		t.Errorf("Expected \"Text\", got %s", b)
	}

	var ct ContentType
	if err := json.Unmarshal(b, &ct); err != nil {
		t.Fatalf("Failed to unmarshal Text content: %v", err)
	}
	if ct.Kind != KindText {
		t.Errorf("Expected kind %q, got %q", KindText, ct.Kind)
	}
}

// TestContentTypeJSON_File File はファイル名とサイズを持つオブジェクト
func TestContentTypeJSON_File(t *testing.T) {
	b, err := json.Marshal(FileContent("photo.png", 2048))
	if err != nil {
		t.Fatalf("Failed to marshal File content: %v", err)
	}
	if string(b) != `{"File":{"filename":"photo.png","size":2048}}` {
		t.Errorf("Unexpected File encoding: %s", b)
	}

	var ct ContentType
	if err := json.Unmarshal(b, &ct); err != nil {
		t.Fatalf("Failed to unmarshal File content: %v", err)
	}
	if ct.Kind != KindFile || ct.Filename != "photo.png" || ct.Size != 2048 {
		t.Errorf("File round trip mismatch: %+v", ct)
	}
}

// TestContentTypeJSON_VoiceAndVideo Voice/Video は duration を持つ
func TestContentTypeJSON_VoiceAndVideo(t *testing.T) {
	b, err := json.Marshal(VoiceContent(12))
	if err != nil {
		t.Fatalf("Failed to marshal Voice content: %v", err)
	}
	if string(b) != `{"Voice":{"duration":12}}` {
		t.Errorf("Unexpected Voice encoding: %s", b)
	}

	var ct ContentType
	if err := json.Unmarshal([]byte(`{"Video":{"duration":45}}`), &ct); err != nil {
		t.Fatalf("Failed to unmarshal Video content: %v", err)
	}
	if ct.Kind != KindVideo || ct.Duration != 45 {
		t.Errorf("Video decode mismatch: %+v", ct)
	}
}

// TestContentTypeJSON_UnknownKind 未知のタグはデフォルトにせず拒否する
func TestContentTypeJSON_UnknownKind(t *testing.T) {
	cases := []string{
		`"Sticker"`,
		`{"Sticker":{}}`,
		`{"File":{"filename":"a"},"Voice":{"duration":1}}`,
		`{}`,
		`42`,
	}

	for _, input := range cases {
		var ct ContentType
		if err := json.Unmarshal([]byte(input), &ct); err == nil {
			t.Errorf("Expected decode of %s to fail, got %+v", input, ct)
		}
	}
}

// TestContentTypeMarshal_UnknownKind 不正な Kind はエンコードも拒否する
func TestContentTypeMarshal_UnknownKind(t *testing.T) {
	ct := ContentType{Kind: ContentKind("Hologram")}
	if _, err := json.Marshal(ct); err == nil {
		t.Error("Expected marshal of unknown kind to fail")
	}
}

// TestContentTypeScan DBの列値からの復元と不正値の拒否
func TestContentTypeScan(t *testing.T) {
	var ct ContentType
	if err := ct.Scan([]byte(`{"File":{"filename":"memo.txt","size":10}}`)); err != nil {
		t.Fatalf("Failed to scan valid content type: %v", err)
	}
	if ct.Kind != KindFile || ct.Filename != "memo.txt" {
		t.Errorf("Scan mismatch: %+v", ct)
	}

	if err := ct.Scan(`"Sticker"`); err == nil {
		t.Error("Expected scan of unknown kind to fail")
	}
	if err := ct.Scan(123); err == nil {
		t.Error("Expected scan of non-string value to fail")
	}
}

// TestMessageJSON_ReadAtNull 未読メッセージの read_at は null で出力される
func TestMessageJSON_ReadAtNull(t *testing.T) {
	msg := Message{Content: "hello", ContentType: TextContent()}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}
	if !strings.Contains(string(b), `"read_at":null`) {
		t.Errorf("Expected read_at to serialize as null: %s", b)
	}
	if !strings.Contains(string(b), `"content_type":"Text"`) {
		t.Errorf("Expected content_type to serialize as \"Text\": %s", b)
	}
}

// TestUserJSON_PasswordHashHidden パスワードハッシュはシリアライズされない
func TestUserJSON_PasswordHashHidden(t *testing.T) {
	u := User{Username: "alice", PasswordHash: "secret-hash"}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Failed to marshal user: %v", err)
	}
	if strings.Contains(string(b), "secret-hash") {
		t.Errorf("Password hash must not be serialized: %s", b)
	}
}
