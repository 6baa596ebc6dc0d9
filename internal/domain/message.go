package domain

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message types. The meaning of Content depends on the type: plain text for
// TEXT, empty for VOICE (audio lives in AudioData), a remote URL for FILE_URL.
const (
	TypeText  = "TEXT"
	TypeVoice = "VOICE"
	TypeFile  = "FILE_URL"
)

var (
	ErrEmptyContent    = errors.New("message content is empty")
	ErrBadAudioPayload = errors.New("audio payload is not valid base64")
	ErrIncompleteFile  = errors.New("file message requires content, file name and file type")
	ErrBadFileURL      = errors.New("file content is not a valid URL")
	ErrUnknownType     = errors.New("unknown message type")
)

// Message is an immutable chat message. Instances are only created through
// the typed constructors below, which validate at construction time.
type Message struct {
	ID            uuid.UUID
	ChatID        uuid.UUID
	Sender        string
	Type          string
	Content       string
	AudioData     []byte
	AudioMimeType *string
	FileName      *string
	FileType      *string
	CreatedAt     time.Time
}

func NewTextMessage(chatID uuid.UUID, sender, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	return &Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Sender:    sender,
		Type:      TypeText,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// NewVoiceMessage decodes the base64 audio payload sent by the client. A
// payload that fails to decode is reported distinctly from an empty one.
func NewVoiceMessage(chatID uuid.UUID, sender, encoded, mimeType string) (*Message, error) {
	if encoded == "" {
		return nil, ErrEmptyContent
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrBadAudioPayload
	}
	if len(audio) == 0 {
		return nil, ErrEmptyContent
	}
	msg := &Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Sender:    sender,
		Type:      TypeVoice,
		AudioData: audio,
		CreatedAt: time.Now(),
	}
	if mimeType != "" {
		msg.AudioMimeType = &mimeType
	}
	return msg, nil
}

func NewFileMessage(chatID uuid.UUID, sender, fileURL, fileName, fileType string) (*Message, error) {
	if fileURL == "" || fileName == "" || fileType == "" {
		return nil, ErrIncompleteFile
	}
	u, err := url.Parse(fileURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, ErrBadFileURL
	}
	return &Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Sender:    sender,
		Type:      TypeFile,
		Content:   fileURL,
		FileName:  &fileName,
		FileType:  &fileType,
		CreatedAt: time.Now(),
	}, nil
}
