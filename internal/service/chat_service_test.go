package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type chatFixture struct {
	svc        ChatService
	relSvc     RelationshipService
	chatRepo   *fakeChatRepo
	pub        *recordingPublisher
	instructor *domain.User
	client     *domain.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	instructor := &domain.User{Role: domain.RoleInstructor, FirstName: "Ada", LastName: "Coach", Username: "ada"}
	client := &domain.User{Role: domain.RoleUser, FirstName: "Bo", LastName: "Client", Username: "bo"}
	userRepo := newFakeUserRepo(instructor, client)
	relRepo := newFakeRelationshipRepo()
	chatRepo := newFakeChatRepo()
	pub := &recordingPublisher{}
	relSvc := NewRelationshipService(userRepo, relRepo, newFakeAssignmentRepo(), fakeTxRunner{}, pub)
	svc := NewChatService(chatRepo, newFakeMessageRepo(), relRepo, userRepo, nil, fakeTxRunner{}, pub)
	return &chatFixture{svc: svc, relSvc: relSvc, chatRepo: chatRepo, pub: pub, instructor: instructor, client: client}
}

func TestStartChatIsDeterministic(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	fromClient, err := f.svc.StartChat(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)
	fromInstructor, err := f.svc.StartChat(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)

	// Both sides land on the same document.
	assert.Equal(t, fromClient.ID, fromInstructor.ID)
	assert.Equal(t, domain.ChatIDFor(f.client.ID, f.instructor.ID), fromClient.ID)

	// Each side sees the other as the counterpart.
	assert.Equal(t, f.instructor.ID.Hex(), fromClient.OtherParticipant.UID)
	assert.Equal(t, f.client.ID.Hex(), fromInstructor.OtherParticipant.UID)
}

func TestStartChatValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartChat(ctx, f.client.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrCannotChatSelf)

	_, err = f.svc.StartChat(ctx, f.client.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestChatBannerFollowsRelationship(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartChat(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationNone, view.ClientStatus)
	assert.Empty(t, view.OfferSentBy)

	// Offer: banner turns pending with the sender recorded.
	_, err = f.relSvc.Offer(ctx, f.instructor.ID, f.client.ID)
	require.NoError(t, err)
	view, err = f.svc.GetChat(ctx, f.client.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationPending, view.ClientStatus)
	assert.Equal(t, f.instructor.ID.Hex(), view.OfferSentBy)

	// Accept: banner turns accepted, sender marker cleared.
	_, err = f.relSvc.Accept(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)
	view, err = f.svc.GetChat(ctx, f.client.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationAccepted, view.ClientStatus)
	assert.Empty(t, view.OfferSentBy)

	// Remove: no relationship record left, banner derives back to none.
	require.NoError(t, f.relSvc.Remove(ctx, f.instructor.ID, f.client.ID))
	view, err = f.svc.GetChat(ctx, f.client.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationNone, view.ClientStatus)
}

func TestSendMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartChat(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.client.ID, view.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msg, err := f.svc.SendMessage(ctx, f.client.ID, view.ID, "  hello coach  ")
	require.NoError(t, err)
	assert.Equal(t, "hello coach", msg.Text, "text is trimmed")
	assert.Equal(t, f.client.ID, msg.SenderID)

	// The chat carries the denormalized last message.
	chat, err := f.chatRepo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello coach", chat.LastMessage)

	// Message log is ascending.
	_, err = f.svc.SendMessage(ctx, f.instructor.ID, view.ID, "hello back")
	require.NoError(t, err)
	messages, err := f.svc.ListMessages(ctx, f.client.ID, view.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello coach", messages[0].Text)
	assert.Equal(t, "hello back", messages[1].Text)

	// Watchers of the chat topic heard about the message.
	assert.Contains(t, f.pub.kindsFor(live.TopicChat(view.ID)), live.KindMessages)
}

func TestChatMembershipGuard(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartChat(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = f.svc.SendMessage(ctx, stranger, view.ID, "let me in")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = f.svc.ListMessages(ctx, stranger, view.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.GetChat(ctx, f.client.ID, "missing_chat")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestListChats(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartChat(ctx, f.client.ID, f.instructor.ID)
	require.NoError(t, err)

	views, err := f.svc.ListChats(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, f.instructor.ID.Hex(), views[0].OtherParticipant.UID)
	assert.Equal(t, domain.RelationNone, views[0].ClientStatus)
}

// chatTxRecorder counts transactions and can simulate an aborted one.
type chatTxRecorder struct {
	calls int
	err   error
}

func (r *chatTxRecorder) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	return fn(ctx)
}

func TestSendMessageWritesAreTransactional(t *testing.T) {
	instructor := &domain.User{Role: domain.RoleInstructor, FirstName: "Ada", LastName: "Coach", Username: "ada"}
	client := &domain.User{Role: domain.RoleUser, FirstName: "Bo", LastName: "Client", Username: "bo"}
	userRepo := newFakeUserRepo(instructor, client)
	chatRepo := newFakeChatRepo()
	pub := &recordingPublisher{}
	tx := &chatTxRecorder{}
	svc := NewChatService(chatRepo, newFakeMessageRepo(), newFakeRelationshipRepo(), userRepo, nil, tx, pub)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, client.ID, instructor.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, client.ID, chat.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls, "append and lastMessage denorm commit together")

	t.Run("aborted transaction surfaces and publishes nothing", func(t *testing.T) {
		tx.err = errors.New("transaction aborted")
		before := len(pub.kindsFor(live.TopicChat(chat.ID)))

		_, err := svc.SendMessage(ctx, client.ID, chat.ID, "again")
		require.Error(t, err)
		assert.Len(t, pub.kindsFor(live.TopicChat(chat.ID)), before)
	})
}
