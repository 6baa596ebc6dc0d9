package domain

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// WireMessage is the transport projection of a persisted Message. Fields
// irrelevant to the message type are cleared so clients never see stray
// metadata; VOICE audio goes out re-encoded as base64 in Content.
type WireMessage struct {
	ID            uuid.UUID `json:"id"`
	ChatID        uuid.UUID `json:"chatId"`
	Sender        string    `json:"sender"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	AudioMimeType *string   `json:"audioMimeType,omitempty"`
	FileName      *string   `json:"fileName,omitempty"`
	FileType      *string   `json:"fileType,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewWireMessage(m *Message) *WireMessage {
	w := &WireMessage{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Type:      m.Type,
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}
	switch m.Type {
	case TypeVoice:
		if len(m.AudioData) > 0 {
			w.Content = base64.StdEncoding.EncodeToString(m.AudioData)
		}
		w.AudioMimeType = m.AudioMimeType
	case TypeFile:
		w.FileName = m.FileName
		w.FileType = m.FileType
	}
	return w
}
