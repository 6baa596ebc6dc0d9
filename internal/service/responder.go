package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Apology sent when the generation API fails or returns nothing. The chat
// must always receive a terminal bot reply so clients never hang on a
// "typing" state.
const apologyText = "Sorry, I couldn't connect to my brain. Please try again."

const generateTimeout = 30 * time.Second

// Generator produces a single-turn text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BotPoster re-enters the dispatcher's persist+broadcast steps with a fixed
// bot identity. Implemented by MessageService.
type BotPoster interface {
	PostBotMessage(ctx context.Context, chatID uuid.UUID, sender, text string) error
}

type Responder struct {
	generator   Generator
	poster      BotPoster
	botUsername string
	logger      *zap.Logger
}

func NewResponder(generator Generator, poster BotPoster, botUsername string, logger *zap.Logger) *Responder {
	return &Responder{
		generator:   generator,
		poster:      poster,
		botUsername: botUsername,
		logger:      logger,
	}
}

// Respond generates a reply to userText and posts it to the chat. It is
// called on its own goroutine, detached from the triggering send, and owns
// its deadline. Any failure degrades to the fixed apology.
func (r *Responder) Respond(chatID uuid.UUID, userText string) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	text, err := r.generator.Generate(ctx, userText)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			r.logger.Error("generation failed",
				zap.String("chat_id", chatID.String()), zap.Error(err))
		} else {
			r.logger.Warn("generator returned blank response",
				zap.String("chat_id", chatID.String()))
		}
		text = apologyText
	}

	// A fresh context here: the generate deadline may already be spent and
	// the apology still has to land.
	postCtx, cancelPost := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelPost()

	if err := r.poster.PostBotMessage(postCtx, chatID, r.botUsername, text); err != nil {
		r.logger.Error("posting bot reply failed",
			zap.String("chat_id", chatID.String()), zap.Error(err))
	}
}
