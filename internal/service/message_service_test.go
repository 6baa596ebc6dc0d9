package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mlukic/duet/internal/domain"
)

type dispatcherFixture struct {
	svc      *MessageService
	chats    *ChatService
	users    *memUserRepo
	messages *memMessageRepo
	notifier *recordingNotifier
	chatID   uuid.UUID
}

// newDispatcherFixture wires a MessageService over in-memory stores with an
// "alice"/"bob" chat already created. "eve" exists but is an outsider.
func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	users := newMemUserRepo()
	chatRepo := newMemChatRepo()
	messages := newMemMessageRepo()
	chats := NewChatService(chatRepo, users, messages, testBot)

	alice := seedUser(t, users, "alice")
	seedUser(t, users, "bob")
	seedUser(t, users, "eve")

	chat, err := chats.Create(context.Background(), alice.ID, CreateChatInput{Name: "pair", ReceiverName: "bob"})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewMessageService(messages, chats, zap.NewNop())
	svc.SetNotifier(notifier)

	return &dispatcherFixture{
		svc:      svc,
		chats:    chats,
		users:    users,
		messages: messages,
		notifier: notifier,
		chatID:   chat.ID,
	}
}

func (f *dispatcherFixture) send(in InboundMessage, sender string) error {
	return f.svc.HandleInbound(context.Background(), f.chatID, in, sender)
}

func TestHandleInboundTextMessage(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.send(InboundMessage{Type: domain.TypeText, Sender: "alice", Content: "hello"}, "alice")
	require.NoError(t, err)

	stored := f.messages.all()
	require.Len(t, stored, 1)
	assert.Equal(t, "alice", stored[0].Sender)
	assert.Equal(t, "hello", stored[0].Content)
	assert.False(t, stored[0].CreatedAt.IsZero())

	// The broadcast carries the persisted row's id and timestamp, not
	// anything the client declared.
	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	assert.Equal(t, stored[0].ID, broadcast[0].ID)
	assert.Equal(t, stored[0].CreatedAt, broadcast[0].Timestamp)
	assert.Equal(t, "hello", broadcast[0].Content)
	assert.Equal(t, domain.TypeText, broadcast[0].Type)
}

func TestHandleInboundMalformedPayload(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.send(InboundMessage{Sender: "alice", Content: "hello"}, "alice")
	assert.ErrorIs(t, err, ErrMalformedPayload)

	err = f.send(InboundMessage{Type: domain.TypeText, Content: "hello"}, "alice")
	assert.ErrorIs(t, err, ErrMalformedPayload)

	assert.Empty(t, f.messages.all())
	assert.Empty(t, f.notifier.all())
}

func TestHandleInboundOverwritesDeclaredSender(t *testing.T) {
	f := newDispatcherFixture(t)

	// A stale client declaring someone else's name gets corrected, not
	// rejected — and authorization runs against the authenticated user.
	err := f.send(InboundMessage{Type: domain.TypeText, Sender: "bob", Content: "hi"}, "alice")
	require.NoError(t, err)

	stored := f.messages.all()
	require.Len(t, stored, 1)
	assert.Equal(t, "alice", stored[0].Sender)
}

func TestHandleInboundNonParticipantRejected(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.send(InboundMessage{Type: domain.TypeText, Sender: "eve", Content: "let me in"}, "eve")
	assert.ErrorIs(t, err, ErrNotParticipant)

	assert.Empty(t, f.messages.all())
	assert.Empty(t, f.notifier.all())
}

func TestHandleInboundEmptyTextRejected(t *testing.T) {
	f := newDispatcherFixture(t)

	for _, content := range []string{"", "   ", "\n\t "} {
		err := f.send(InboundMessage{Type: domain.TypeText, Sender: "alice", Content: content}, "alice")
		assert.ErrorIs(t, err, domain.ErrEmptyContent, "content %q", content)
	}

	assert.Empty(t, f.messages.all())
	assert.Empty(t, f.notifier.all())
}

func TestHandleInboundVoiceMessage(t *testing.T) {
	f := newDispatcherFixture(t)

	// "aGVsbG8" is base64 for "hello".
	err := f.send(InboundMessage{
		Type: domain.TypeVoice, Sender: "alice",
		Content: "aGVsbG8=", AudioMimeType: "audio/ogg",
	}, "alice")
	require.NoError(t, err)

	stored := f.messages.all()
	require.Len(t, stored, 1)
	assert.Equal(t, []byte("hello"), stored[0].AudioData)
	assert.Empty(t, stored[0].Content)

	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	assert.Equal(t, "aGVsbG8=", broadcast[0].Content)
	require.NotNil(t, broadcast[0].AudioMimeType)
	assert.Equal(t, "audio/ogg", *broadcast[0].AudioMimeType)
}

func TestHandleInboundVoiceBadEncoding(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.send(InboundMessage{Type: domain.TypeVoice, Sender: "alice", Content: "not!!base64"}, "alice")
	assert.ErrorIs(t, err, domain.ErrBadAudioPayload)
	assert.Empty(t, f.messages.all())
}

func TestHandleInboundFileMessageRequiresAllFields(t *testing.T) {
	f := newDispatcherFixture(t)

	// Missing fileName is rejected even with a valid URL and type.
	err := f.send(InboundMessage{
		Type: domain.TypeFile, Sender: "alice",
		Content: "https://cdn.example.com/a.pdf", FileType: "application/pdf",
	}, "alice")
	assert.ErrorIs(t, err, domain.ErrIncompleteFile)

	// A malformed URL is rejected too.
	err = f.send(InboundMessage{
		Type: domain.TypeFile, Sender: "alice",
		Content: "not a url", FileName: "a.pdf", FileType: "application/pdf",
	}, "alice")
	assert.ErrorIs(t, err, domain.ErrBadFileURL)

	assert.Empty(t, f.messages.all())

	err = f.send(InboundMessage{
		Type: domain.TypeFile, Sender: "alice",
		Content: "https://cdn.example.com/a.pdf", FileName: "a.pdf", FileType: "application/pdf",
	}, "alice")
	require.NoError(t, err)

	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	require.NotNil(t, broadcast[0].FileName)
	assert.Equal(t, "a.pdf", *broadcast[0].FileName)
}

func TestHandleInboundUnknownTypeRejected(t *testing.T) {
	f := newDispatcherFixture(t)

	err := f.send(InboundMessage{Type: "STICKER", Sender: "alice", Content: "x"}, "alice")
	assert.ErrorIs(t, err, domain.ErrUnknownType)
	assert.Empty(t, f.messages.all())
}

func TestHandleInboundPersistFailureSkipsBroadcast(t *testing.T) {
	f := newDispatcherFixture(t)
	f.messages.createErr = errStoreDown

	err := f.send(InboundMessage{Type: domain.TypeText, Sender: "alice", Content: "hello"}, "alice")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, f.notifier.all())
}

func TestHandleInboundTriggersResponderForAIChat(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	seedUser(t, f.users, testBot)
	alice, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	aiChat, err := f.chats.Create(ctx, alice.ID, CreateChatInput{Name: "ai", ReceiverName: testBot})
	require.NoError(t, err)

	responder := newFakeResponder()
	f.svc.SetResponder(responder)

	// Human chat: no trigger.
	require.NoError(t, f.send(InboundMessage{Type: domain.TypeText, Sender: "alice", Content: "hi bob"}, "alice"))

	// AI chat: trigger with the message text.
	require.NoError(t, f.svc.HandleInbound(ctx, aiChat.ID, InboundMessage{Type: domain.TypeText, Sender: "alice", Content: "hi bot"}, "alice"))

	select {
	case text := <-responder.calls:
		assert.Equal(t, "hi bot", text)
	case <-time.After(time.Second):
		t.Fatal("responder was not invoked for AI chat")
	}

	select {
	case text := <-responder.calls:
		t.Fatalf("unexpected responder call: %q", text)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHistoryOrderedAscending(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	require.NoError(t, f.send(InboundMessage{Type: domain.TypeText, Sender: "alice", Content: "hi"}, "alice"))
	require.NoError(t, f.send(InboundMessage{Type: domain.TypeText, Sender: "bob", Content: "there"}, "bob"))

	history, err := f.svc.History(ctx, f.chatID, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "there", history[1].Content)
	assert.False(t, history[1].Timestamp.Before(history[0].Timestamp))
}

func TestHistoryRequiresMembership(t *testing.T) {
	f := newDispatcherFixture(t)

	_, err := f.svc.History(context.Background(), f.chatID, "eve")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestResponderSuccessPostsGeneratedReply(t *testing.T) {
	f := newDispatcherFixture(t)

	responder := NewResponder(&fakeGenerator{text: "42."}, f.svc, testBot, zap.NewNop())
	responder.Respond(f.chatID, "what is the answer?")

	stored := f.messages.all()
	require.Len(t, stored, 1)
	assert.Equal(t, testBot, stored[0].Sender)
	assert.Equal(t, "42.", stored[0].Content)
	assert.Equal(t, domain.TypeText, stored[0].Type)

	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	assert.Equal(t, testBot, broadcast[0].Sender)
}

func TestResponderFailureDegradesToApology(t *testing.T) {
	f := newDispatcherFixture(t)

	responder := NewResponder(&fakeGenerator{err: context.DeadlineExceeded}, f.svc, testBot, zap.NewNop())
	responder.Respond(f.chatID, "hello?")

	// Exactly one terminal bot reply, never a surfaced error.
	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	assert.Equal(t, testBot, broadcast[0].Sender)
	assert.Equal(t, apologyText, broadcast[0].Content)
}

func TestResponderBlankReplyDegradesToApology(t *testing.T) {
	f := newDispatcherFixture(t)

	responder := NewResponder(&fakeGenerator{text: "  \n"}, f.svc, testBot, zap.NewNop())
	responder.Respond(f.chatID, "hello?")

	broadcast := f.notifier.all()
	require.Len(t, broadcast, 1)
	assert.Equal(t, apologyText, broadcast[0].Content)
}
