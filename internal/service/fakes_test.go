package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mlukic/duet/internal/domain"
)

// In-memory fakes for the repository interfaces and collaborators. Failure
// injection happens through the err fields.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type memChatRepo struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*domain.Chat
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: make(map[uuid.UUID]*domain.Chat)}
}

func (r *memChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *chat
	r.chats[chat.ID] = &c
	return nil
}

func (r *memChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memChatRepo) GetByOwnerAndReceiver(ctx context.Context, ownerID, receiverID uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if c.OwnerID == ownerID && c.ReceiverID == receiverID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chats []domain.Chat
	for _, c := range r.chats {
		if c.OwnerID == userID || c.ReceiverID == userID {
			chats = append(chats, *c)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].CreatedAt.After(chats[j].CreatedAt) })
	return chats, nil
}

func (r *memChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

type memMessageRepo struct {
	mu        sync.Mutex
	messages  []domain.Message
	createErr error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id {
			cp := r.messages[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessageRepo) DeleteByChat(ctx context.Context, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *memMessageRepo) all() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.messages...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	broadcast []domain.WireMessage
}

func (n *recordingNotifier) BroadcastMessage(msg *domain.WireMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, *msg)
}

func (n *recordingNotifier) all() []domain.WireMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.WireMessage(nil), n.broadcast...)
}

type fakeResponder struct {
	calls chan string
}

func newFakeResponder() *fakeResponder {
	return &fakeResponder{calls: make(chan string, 8)}
}

func (f *fakeResponder) Respond(chatID uuid.UUID, userText string) {
	f.calls <- userText
}

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

var errStoreDown = errors.New("store down")
