package ws

import (
	"sync"

	"telegram_clicker/internal/logger"
)

// Hub tracks open connections per player. A player may have several (phone
// and desktop), and every one of them receives pushes.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.PlayerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.PlayerID] = set
	}
	set[c] = struct{}{}
	connectionsGauge.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.PlayerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.PlayerID)
	}
	connectionsGauge.Dec()
}

// Online reports how many connections a player has open.
func (h *Hub) Online(playerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[playerID])
}

// Publish queues msgType to every connection of playerID. Slow connections
// drop the message instead of blocking the caller.
func (h *Hub) Publish(playerID int64, msgType string, payload any) {
	msg, err := encode(msgType, payload)
	if err != nil {
		logger.Error("ws: encode publish failed", "type", msgType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[playerID] {
		c.queue(msg)
	}
}

// NotifyTransfer tells the recipient's open sessions about incoming coins.
func (h *Hub) NotifyTransfer(fromID, toID, amount int64) {
	h.Publish(toID, MsgTransferIn, TransferInPayload{FromPlayerID: fromID, Amount: amount})
}

// CloseAll sends a close frame on every open connection. http.Server.Shutdown
// does not track hijacked connections, so this runs before it.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			c.close()
		}
	}
}
