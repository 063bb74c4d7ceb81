package ws

import (
	"testing"

	"github.com/google/uuid"
)

// TestRegistry_SendTo 登録済みユーザーへの配送
func TestRegistry_SendTo(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	ch := make(chan []byte, sendBuffer)

	r.Register(userID, ch)

	r.SendTo(userID, []byte("frame-1"))

	select {
	case frame := <-ch:
		if string(frame) != "frame-1" {
			t.Errorf("Expected frame-1, got %s", frame)
		}
	default:
		t.Error("Expected a frame on the registered channel")
	}
}

// TestRegistry_SendToUnknownUser 未登録ユーザー宛は黙って捨てられる
func TestRegistry_SendToUnknownUser(t *testing.T) {
	r := NewRegistry()

	// エラーも panic も起きないこと
	r.SendTo(uuid.New(), []byte("lost"))

	if r.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Count())
	}
}

// TestRegistry_RegisterReplaces 再登録は古いチャネルを閉じて置き換える
func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	ch1 := make(chan []byte, sendBuffer)
	ch2 := make(chan []byte, sendBuffer)

	if r.Register(userID, ch1) {
		t.Error("First registration must not report a replacement")
	}
	if !r.Register(userID, ch2) {
		t.Error("Re-registration must report that the user was already online")
	}

	// 古いチャネルは閉じられている
	select {
	case _, ok := <-ch1:
		if ok {
			t.Error("Expected superseded channel to be closed, got a frame")
		}
	default:
		t.Error("Expected superseded channel to be closed")
	}

	// 配送は新しいチャネルへ
	r.SendTo(userID, []byte("frame-2"))
	select {
	case frame := <-ch2:
		if string(frame) != "frame-2" {
			t.Errorf("Expected frame-2, got %s", frame)
		}
	default:
		t.Error("Expected a frame on the replacement channel")
	}

	if r.Count() != 1 {
		t.Errorf("Expected 1 online user, got %d", r.Count())
	}
}

// TestRegistry_UnregisterStaleChannel 置き換え済みの接続は後継を消せない
func TestRegistry_UnregisterStaleChannel(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	ch1 := make(chan []byte, sendBuffer)
	ch2 := make(chan []byte, sendBuffer)

	r.Register(userID, ch1)
	r.Register(userID, ch2)

	if r.Unregister(userID, ch1) {
		t.Error("Stale channel must not unregister the replacement")
	}
	if !r.IsOnline(userID) {
		t.Error("User should stay online after stale unregister")
	}

	if !r.Unregister(userID, ch2) {
		t.Error("Current channel should unregister successfully")
	}
	if r.IsOnline(userID) {
		t.Error("User should be offline after unregister")
	}
}

// TestRegistry_UnregisterKeepsOthers 他ユーザーのマッピングには影響しない
func TestRegistry_UnregisterKeepsOthers(t *testing.T) {
	r := NewRegistry()
	userA, userB := uuid.New(), uuid.New()
	chA := make(chan []byte, sendBuffer)
	chB := make(chan []byte, sendBuffer)

	r.Register(userA, chA)
	r.Register(userB, chB)
	r.Unregister(userA, chA)

	if !r.IsOnline(userB) {
		t.Error("Unregistering A must not remove B")
	}
}

// TestRegistry_SendToFullBufferDrops バッファ満杯時はブロックせずに捨てる
func TestRegistry_SendToFullBufferDrops(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()
	ch := make(chan []byte, sendBuffer)
	r.Register(userID, ch)

	for i := 0; i < sendBuffer; i++ {
		r.SendTo(userID, []byte("fill"))
	}

	done := make(chan struct{})
	go func() {
		r.SendTo(userID, []byte("overflow"))
		close(done)
	}()

	select {
	case <-done:
	case <-timeout(t):
		t.Fatal("SendTo must not block on a full buffer")
	}

	if len(ch) != sendBuffer {
		t.Errorf("Expected buffer to stay at %d frames, got %d", sendBuffer, len(ch))
	}
}

// TestRegistry_ForEachOther 自分自身は対象外
func TestRegistry_ForEachOther(t *testing.T) {
	r := NewRegistry()
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	r.Register(userA, make(chan []byte, 1))
	r.Register(userB, make(chan []byte, 1))
	r.Register(userC, make(chan []byte, 1))

	visited := make(map[uuid.UUID]int)
	r.ForEachOther(userA, func(id uuid.UUID) {
		visited[id]++
	})

	if len(visited) != 2 {
		t.Fatalf("Expected 2 visited users, got %d", len(visited))
	}
	if visited[userA] != 0 {
		t.Error("ForEachOther must exclude the given user")
	}
	if visited[userB] != 1 || visited[userC] != 1 {
		t.Errorf("Expected each other user to be visited once: %v", visited)
	}
}
