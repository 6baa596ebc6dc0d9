package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlukic/duet/internal/domain"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, name, owner_id, receiver_id, receiver_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		chat.ID, chat.Name, chat.OwnerID, chat.ReceiverID, chat.ReceiverName, chat.CreatedAt,
	)
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT id, name, owner_id, receiver_id, receiver_name, created_at
		FROM chats
		WHERE id = $1`
	var chat domain.Chat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&chat.ID, &chat.Name, &chat.OwnerID, &chat.ReceiverID, &chat.ReceiverName, &chat.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &chat, err
}

func (r *ChatRepo) GetByOwnerAndReceiver(ctx context.Context, ownerID, receiverID uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT id, name, owner_id, receiver_id, receiver_name, created_at
		FROM chats
		WHERE owner_id = $1 AND receiver_id = $2`
	var chat domain.Chat
	err := r.pool.QueryRow(ctx, query, ownerID, receiverID).Scan(
		&chat.ID, &chat.Name, &chat.OwnerID, &chat.ReceiverID, &chat.ReceiverName, &chat.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &chat, err
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	query := `
		SELECT id, name, owner_id, receiver_id, receiver_name, created_at
		FROM chats
		WHERE owner_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(
			&chat.ID, &chat.Name, &chat.OwnerID, &chat.ReceiverID, &chat.ReceiverName, &chat.CreatedAt,
		); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	return err
}
