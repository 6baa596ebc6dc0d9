package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/duet/internal/domain"
	"github.com/mlukic/duet/internal/repository"
)

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrReceiverNotFound = errors.New("receiver user not found")
	ErrSelfChat         = errors.New("cannot create a chat with yourself")
	ErrChatExists       = errors.New("chat already exists between these users")
	ErrNotChatOwner     = errors.New("only the chat owner can delete it")
	ErrNotParticipant   = errors.New("you are not a participant of this chat")
)

type ChatService struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	botUsername string
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, messageRepo repository.MessageRepository, botUsername string) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		botUsername: botUsername,
	}
}

type CreateChatInput struct {
	Name         string `json:"name"`
	ReceiverName string `json:"receiver_name"`
}

// Create resolves the receiver by username and persists a pairwise chat.
// The pair is symmetric but stored directionally, so the duplicate check
// has to look at both role orderings.
func (s *ChatService) Create(ctx context.Context, ownerID uuid.UUID, input CreateChatInput) (*domain.Chat, error) {
	receiver, err := s.userRepo.GetByUsername(ctx, input.ReceiverName)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrReceiverNotFound
	}

	if receiver.ID == ownerID {
		return nil, ErrSelfChat
	}

	existing, err := s.chatRepo.GetByOwnerAndReceiver(ctx, ownerID, receiver.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.chatRepo.GetByOwnerAndReceiver(ctx, receiver.ID, ownerID)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, ErrChatExists
	}

	chat := &domain.Chat{
		ID:           uuid.New(),
		Name:         input.Name,
		OwnerID:      ownerID,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Username,
		CreatedAt:    time.Now(),
	}

	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	return chat, nil
}

func (s *ChatService) ListFor(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	chats, err := s.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

// Delete removes a chat and all of its messages. Only the owner may delete;
// the receiver gets ErrNotChatOwner.
func (s *ChatService) Delete(ctx context.Context, chatID, requesterID uuid.UUID) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if chat.OwnerID != requesterID {
		return ErrNotChatOwner
	}

	if err := s.messageRepo.DeleteByChat(ctx, chatID); err != nil {
		return fmt.Errorf("deleting chat messages: %w", err)
	}
	if err := s.chatRepo.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	return nil
}

// IsParticipant reports whether the named user belongs to the chat. An
// unknown user or chat is simply not a participant, never an error.
func (s *ChatService) IsParticipant(ctx context.Context, username string, chatID uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return false, err
	}
	if chat == nil {
		return false, nil
	}

	return chat.OwnerID == user.ID || chat.ReceiverID == user.ID, nil
}

// IsAIChat reports whether the chat's counterpart is the reserved bot user.
func (s *ChatService) IsAIChat(ctx context.Context, chatID uuid.UUID) (bool, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return false, err
	}
	if chat == nil {
		return false, nil
	}
	return chat.ReceiverName == s.botUsername, nil
}
