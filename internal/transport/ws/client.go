package ws

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mlukic/duet/internal/service"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Dispatcher handles an inbound message for a chat. Implemented by
// service.MessageService.
type Dispatcher interface {
	HandleInbound(ctx context.Context, chatID uuid.UUID, in service.InboundMessage, sender string) error
}

// Client is a single WebSocket connection, scoped to one chat for its whole
// lifetime.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	dispatcher Dispatcher
	chatID     uuid.UUID
	username   string
	logger     *zap.Logger

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, dispatcher Dispatcher, chatID uuid.UUID, username string, logger *zap.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		dispatcher: dispatcher,
		chatID:     chatID,
		username:   username,
		logger:     logger,
		send:       make(chan []byte, sendBufSize),
		done:       make(chan struct{}),
	}
}

// ReadPump reads inbound payloads and hands them to the dispatcher. Any
// exit path removes the subscription, so a closed connection can never
// receive another publish.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c.chatID, c)
		close(c.done)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var in service.InboundMessage
		err := wsjson.Read(context.Background(), c.conn, &in)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Info("client disconnected",
					zap.String("chat_id", c.chatID.String()),
					zap.String("username", c.username))
			} else {
				c.logger.Warn("read error",
					zap.String("username", c.username), zap.Error(err))
			}
			return
		}

		// Rejections are deliberately silent on the wire; the dispatcher
		// already logged the reason.
		_ = c.dispatcher.HandleInbound(context.Background(), c.chatID, in, c.username)
	}
}

// WritePump writes broadcast payloads from the send buffer and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Warn("write error",
					zap.String("username", c.username), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.logger.Warn("ping error",
					zap.String("username", c.username), zap.Error(err))
				return
			}

		case <-c.done:
			return
		}
	}
}
