package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a pairwise conversation between exactly two users. The owner is
// the user who created it; ReceiverName is denormalized for display.
type Chat struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	OwnerID      uuid.UUID `json:"owner_id"`
	ReceiverID   uuid.UUID `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	CreatedAt    time.Time `json:"created_at"`
}
