package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mlukic/duet/internal/service"
	"github.com/mlukic/duet/internal/transport/http/middleware"
	"github.com/mlukic/duet/pkg/validator"
)

type ChatHandler struct {
	chatService    *service.ChatService
	messageService *service.MessageService
	logger         *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, messageService *service.MessageService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, messageService: messageService, logger: logger}
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var input service.CreateChatInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateChat(input.Name, input.ReceiverName); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	chat, err := h.chatService.Create(r.Context(), identity.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReceiverNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Receiver user not found")
		case errors.Is(err, service.ErrSelfChat):
			writeError(w, http.StatusBadRequest, "SELF_CHAT", "Cannot create a chat with yourself")
		case errors.Is(err, service.ErrChatExists):
			writeError(w, http.StatusConflict, "CHAT_EXISTS", "Chat already exists between these users")
		default:
			h.logger.Error("create chat failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	chats, err := h.chatService.ListFor(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list chats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	if err := h.chatService.Delete(r.Context(), chatID, identity.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat not found")
		case errors.Is(err, service.ErrNotChatOwner):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the chat owner can delete it")
		default:
			h.logger.Error("delete chat failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History returns the chat's messages in ascending timestamp order.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	messages, err := h.messageService.History(r.Context(), chatID, identity.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this chat")
		} else {
			h.logger.Error("fetch history failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
