package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlukic/duet/internal/domain"
	"github.com/mlukic/duet/internal/repository"
	"go.uber.org/zap"
)

var ErrMalformedPayload = errors.New("message payload is missing type or sender")

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	BroadcastMessage(msg *domain.WireMessage)
}

// AutoResponder generates a bot reply for a chat. Implementations run on
// their own goroutine and must never surface errors to the caller.
type AutoResponder interface {
	Respond(chatID uuid.UUID, userText string)
}

// Membership answers authorization questions about a chat. Implemented by
// ChatService.
type Membership interface {
	IsParticipant(ctx context.Context, username string, chatID uuid.UUID) (bool, error)
	IsAIChat(ctx context.Context, chatID uuid.UUID) (bool, error)
}

// InboundMessage is the client-declared shape of a real-time send. The
// declared sender is never trusted for authorization.
type InboundMessage struct {
	Type          string `json:"type"`
	Sender        string `json:"sender"`
	Content       string `json:"content"`
	FileName      string `json:"fileName,omitempty"`
	FileType      string `json:"fileType,omitempty"`
	AudioMimeType string `json:"audioMimeType,omitempty"`
}

type MessageService struct {
	messageRepo repository.MessageRepository
	membership  Membership
	notifier    Notifier
	responder   AutoResponder
	logger      *zap.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, membership Membership, logger *zap.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		membership:  membership,
		logger:      logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetResponder sets the AI auto-responder (optional dependency).
func (s *MessageService) SetResponder(r AutoResponder) {
	s.responder = r
}

// HandleInbound runs the full inbound gate chain for a real-time message:
// well-formedness, identity binding, membership, typed validation, persist,
// then broadcast of the persisted projection. Every rejection is silent on
// the wire; the returned error exists for logging and tests only.
func (s *MessageService) HandleInbound(ctx context.Context, chatID uuid.UUID, in InboundMessage, sender string) error {
	if in.Type == "" || in.Sender == "" {
		s.logger.Warn("rejecting malformed message",
			zap.String("chat_id", chatID.String()), zap.String("sender", sender))
		return ErrMalformedPayload
	}

	// The authenticated identity always wins over the client-declared
	// sender. Stale clients get corrected, not disconnected.
	if in.Sender != sender {
		s.logger.Warn("overwriting client-declared sender",
			zap.String("chat_id", chatID.String()),
			zap.String("declared", in.Sender), zap.String("authenticated", sender))
		in.Sender = sender
	}

	ok, err := s.membership.IsParticipant(ctx, sender, chatID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		s.logger.Warn("rejecting message from non-participant",
			zap.String("chat_id", chatID.String()), zap.String("sender", sender))
		return ErrNotParticipant
	}

	msg, err := buildMessage(chatID, in)
	if err != nil {
		s.logger.Warn("rejecting invalid message",
			zap.String("chat_id", chatID.String()), zap.String("sender", sender),
			zap.String("type", in.Type), zap.Error(err))
		return err
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("persisting message: %w", err)
	}

	s.broadcast(msg)

	if msg.Type == domain.TypeText && s.responder != nil {
		aiChat, err := s.membership.IsAIChat(ctx, chatID)
		if err != nil {
			s.logger.Error("checking ai chat flag", zap.String("chat_id", chatID.String()), zap.Error(err))
		} else if aiChat {
			go s.responder.Respond(chatID, msg.Content)
		}
	}

	return nil
}

// PostBotMessage persists and broadcasts a bot TEXT reply. It re-enters only
// the persist and broadcast steps; the bot is not subject to the inbound
// gates and never re-triggers the responder.
func (s *MessageService) PostBotMessage(ctx context.Context, chatID uuid.UUID, sender, text string) error {
	msg, err := domain.NewTextMessage(chatID, sender, text)
	if err != nil {
		return err
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("persisting bot message: %w", err)
	}
	s.broadcast(msg)
	return nil
}

// History returns the chat's messages in ascending timestamp order, gated
// by the same membership check as sends.
func (s *MessageService) History(ctx context.Context, chatID uuid.UUID, username string) ([]domain.WireMessage, error) {
	ok, err := s.membership.IsParticipant(ctx, username, chatID)
	if err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	messages, err := s.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	wire := make([]domain.WireMessage, 0, len(messages))
	for i := range messages {
		wire = append(wire, *domain.NewWireMessage(&messages[i]))
	}
	return wire, nil
}

func (s *MessageService) broadcast(msg *domain.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastMessage(domain.NewWireMessage(msg))
}

// buildMessage dispatches on the declared type. Unknown types are rejected,
// never stored.
func buildMessage(chatID uuid.UUID, in InboundMessage) (*domain.Message, error) {
	switch in.Type {
	case domain.TypeText:
		return domain.NewTextMessage(chatID, in.Sender, in.Content)
	case domain.TypeVoice:
		return domain.NewVoiceMessage(chatID, in.Sender, in.Content, in.AudioMimeType)
	case domain.TypeFile:
		return domain.NewFileMessage(chatID, in.Sender, in.Content, in.FileName, in.FileType)
	default:
		return nil, domain.ErrUnknownType
	}
}
