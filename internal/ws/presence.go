package ws

import (
	"log"

	"github.com/google/uuid"
)

// broadcastPresence announces a status change to every other online user.
// "Online" is registry membership and nothing else; no state is persisted.
func (h *Hub) broadcastPresence(userID uuid.UUID, online bool) {
	var event Event
	if online {
		event = UserOnline{UserID: userID}
	} else {
		event = UserOffline{UserID: userID}
	}

	frame, err := EncodeEvent(event)
	if err != nil {
		log.Printf("[WebSocket] ❌ Failed to encode presence event: %v", err)
		return
	}

	h.registry.ForEachOther(userID, func(id uuid.UUID) {
		h.registry.SendTo(id, frame)
	})
}
