package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mlukic/duet/internal/domain"
	"github.com/mlukic/duet/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidCreds  = errors.New("invalid username or password")
)

type AuthService struct {
	userRepo    repository.UserRepository
	chatRepo    repository.ChatRepository
	jwtSecret   []byte
	botUsername string
	logger      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, chatRepo repository.ChatRepository, jwtSecret, botUsername string, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		chatRepo:    chatRepo,
		jwtSecret:   []byte(jwtSecret),
		botUsername: botUsername,
		logger:      logger,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.seedBotChat(ctx, user)

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

// EnsureBotUser creates the reserved bot identity if it does not exist yet.
// The bot gets a random throwaway password so nobody can log in as it.
func (s *AuthService) EnsureBotUser(ctx context.Context) (*domain.User, error) {
	bot, err := s.userRepo.GetByUsername(ctx, s.botUsername)
	if err != nil {
		return nil, err
	}
	if bot != nil {
		return bot, nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	hash, err := hashPassword(base64.RawStdEncoding.EncodeToString(secret))
	if err != nil {
		return nil, err
	}

	bot = &domain.User{
		ID:           uuid.New(),
		Username:     s.botUsername,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, bot); err != nil {
		return nil, fmt.Errorf("creating bot user: %w", err)
	}
	return bot, nil
}

// seedBotChat gives every new user a ready-made chat with the bot. Failure
// here is not fatal to registration.
func (s *AuthService) seedBotChat(ctx context.Context, user *domain.User) {
	bot, err := s.userRepo.GetByUsername(ctx, s.botUsername)
	if err != nil || bot == nil {
		return
	}
	chat := &domain.Chat{
		ID:           uuid.New(),
		Name:         "Gemini AI",
		OwnerID:      user.ID,
		ReceiverID:   bot.ID,
		ReceiverName: bot.Username,
		CreatedAt:    time.Now(),
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		s.logger.Warn("seeding bot chat failed",
			zap.String("username", user.Username), zap.Error(err))
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
