package ws

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// sendBuffer is the outbound queue depth per connection. A consumer that
// falls further behind than this loses events instead of growing the queue
// without bound.
const sendBuffer = 256

// Registry maps each online user to the outbound channel of their single
// live connection. It is the only state shared between connection
// goroutines; the lock is held across map mutation only, never across I/O.
//
// チャネルの close は必ずライトロック解放後に行う。SendTo はリードロックを
// 保持したまま送信するため、保持中に close されることはない。
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]chan []byte
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]chan []byte)}
}

// Register inserts or replaces the mapping for userID. One user has at most
// one live connection: a superseded channel is closed, which shuts the older
// connection's write pump down. It reports whether an existing connection was
// replaced, i.e. the user was already online.
func (r *Registry) Register(userID uuid.UUID, ch chan []byte) bool {
	r.mu.Lock()
	old := r.conns[userID]
	r.conns[userID] = ch
	total := len(r.conns)
	r.mu.Unlock()

	if old != nil {
		close(old)
		log.Printf("[Registry] Superseded previous connection for user %s", userID)
	}
	log.Printf("[Registry] User %s registered. Online users: %d", userID, total)
	return old != nil
}

// Unregister removes the mapping for userID only while ch is still the
// registered channel, so a superseded connection cannot evict its
// replacement. It reports whether the mapping was removed.
func (r *Registry) Unregister(userID uuid.UUID, ch chan []byte) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current != ch {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	total := len(r.conns)
	r.mu.Unlock()

	close(ch)
	log.Printf("[Registry] User %s unregistered. Online users: %d", userID, total)
	return true
}

// SendTo enqueues an encoded frame for userID. Best-effort fire-and-forget:
// a missing mapping drops silently, a full buffer drops with a log line.
// Never returns an error.
func (r *Registry) SendTo(userID uuid.UUID, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Registry] Dropped event for user %s: %v", userID, rec)
		}
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.conns[userID]
	if !ok {
		return
	}

	select {
	case ch <- frame:
	default:
		log.Printf("[Registry] ⚠️ Outbound buffer full for user %s; event dropped", userID)
	}
}

// ForEachOther invokes fn for every registered user except excludeID. It
// iterates over a snapshot so fn runs without the lock held.
func (r *Registry) ForEachOther(excludeID uuid.UUID, fn func(userID uuid.UUID)) {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		if id != excludeID {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range ids {
		fn(id)
	}
}

// IsOnline reports whether userID currently has a live connection.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Count returns the number of online users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
