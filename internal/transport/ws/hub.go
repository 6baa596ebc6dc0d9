package ws

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub is the process-wide broadcast registry: a map from chat id to the set
// of currently-subscribed clients. Subscriptions are bound to connection
// lifetime; there is no replay, durable history lives in the message store.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Client]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe(chatID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[chatID] == nil {
		h.subs[chatID] = make(map[*Client]struct{})
	}
	h.subs[chatID][c] = struct{}{}
	h.logger.Info("client subscribed",
		zap.String("chat_id", chatID.String()),
		zap.String("username", c.username),
		zap.Int("subscribers", len(h.subs[chatID])))
}

func (h *Hub) Unsubscribe(chatID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[chatID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.subs, chatID)
	}
	h.logger.Info("client unsubscribed",
		zap.String("chat_id", chatID.String()),
		zap.String("username", c.username))
}

// Publish delivers data to every client subscribed at this moment, best
// effort. Clients with a full send buffer miss the payload rather than
// block the publisher.
func (h *Hub) Publish(chatID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[chatID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping message for slow client",
				zap.String("chat_id", chatID.String()),
				zap.String("username", c.username))
		}
	}
}

// Subscribers reports the current subscriber count for a chat.
func (h *Hub) Subscribers(chatID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[chatID])
}
