package ws

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Membership gates the handshake; implemented by service.ChatService.
type Membership interface {
	IsParticipant(ctx context.Context, username string, chatID uuid.UUID) (bool, error)
}

// ServeWS upgrades GET /ws/chats/{id} to a WebSocket scoped to that chat.
// Auth is done via ?token=xxx query param (WebSocket can't send headers);
// membership is checked before the upgrade, so an outsider never holds a
// subscription.
func ServeWS(hub *Hub, dispatcher Dispatcher, membership Membership, jwtSecret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		username, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		chatID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid chat id", http.StatusBadRequest)
			return
		}

		ok, err := membership.IsParticipant(r.Context(), username, chatID)
		if err != nil {
			logger.Error("membership check failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			logger.Warn("websocket handshake denied",
				zap.String("chat_id", chatID.String()), zap.String("username", username))
			http.Error(w, "not a participant", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			logger.Warn("websocket accept error", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, dispatcher, chatID, username, logger)
		hub.Subscribe(chatID, client)

		go client.WritePump()
		go client.ReadPump()
	}
}

func validateToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	return username, nil
}
