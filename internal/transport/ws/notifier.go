package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mlukic/duet/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) BroadcastMessage(msg *domain.WireMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("marshal broadcast message", zap.Error(err))
		return
	}
	n.hub.Publish(msg.ChatID, data)
}
