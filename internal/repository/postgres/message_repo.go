package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlukic/duet/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender, type, content, audio_data, audio_mime_type, file_name, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ChatID, msg.Sender, msg.Type, msg.Content,
		msg.AudioData, msg.AudioMimeType, msg.FileName, msg.FileType, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, chat_id, sender, type, content, audio_data, audio_mime_type, file_name, file_type, created_at
		FROM messages
		WHERE id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ChatID, &msg.Sender, &msg.Type, &msg.Content,
		&msg.AudioData, &msg.AudioMimeType, &msg.FileName, &msg.FileType, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

// ListByChat returns the full history of a chat in ascending timestamp
// order. Ties on created_at are broken by id so the order is stable.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT id, chat_id, sender, type, content, audio_data, audio_mime_type, file_name, file_type, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ChatID, &msg.Sender, &msg.Type, &msg.Content,
			&msg.AudioData, &msg.AudioMimeType, &msg.FileName, &msg.FileType, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) DeleteByChat(ctx context.Context, chatID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID)
	return err
}
