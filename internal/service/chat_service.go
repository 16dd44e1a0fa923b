package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a participant of this chat")
	ErrCannotChatSelf = errors.New("cannot start a chat with yourself")
	ErrEmptyMessage   = errors.New("message text cannot be empty")
)

// ParticipantView is the denormalized counterpart summary shown on a chat.
type ParticipantView struct {
	UID         string      `json:"uid"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Username    string      `json:"username"`
	ProfileIcon string      `json:"profileIcon,omitempty"`
	Role        domain.Role `json:"role"`
}

// participantViewOf trims a full user record down to its public summary.
func participantViewOf(u *domain.User) ParticipantView {
	return ParticipantView{
		UID:         u.ID.Hex(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		ProfileIcon: u.ProfileIcon,
		Role:        u.Role,
	}
}

// ChatView joins a chat with its counterpart profile and the relation state
// derived from the authoritative relationship record. The chat document
// itself stores no status copy.
type ChatView struct {
	ID               string                `json:"id"`
	OtherParticipant ParticipantView       `json:"otherParticipant"`
	LastMessage      string                `json:"lastMessage,omitempty"`
	ClientStatus     domain.RelationStatus `json:"clientStatus"`
	OfferSentBy      string                `json:"offerSentBy,omitempty"`
}

// --- Service Interface ---
type ChatService interface {
	StartChat(ctx context.Context, selfID, otherID primitive.ObjectID) (*ChatView, error)
	ListChats(ctx context.Context, selfID primitive.ObjectID) ([]ChatView, error)
	GetChat(ctx context.Context, selfID primitive.ObjectID, chatID string) (*ChatView, error)
	SendMessage(ctx context.Context, selfID primitive.ObjectID, chatID, text string) (*domain.Message, error)
	ListMessages(ctx context.Context, selfID primitive.ObjectID, chatID string) ([]domain.Message, error)
}

// chatService implements the ChatService interface.
type chatService struct {
	chatRepo repository.ChatRepository
	msgRepo  repository.MessageRepository
	relRepo  repository.RelationshipRepository
	profiles *profileLookup
	tx       repository.TxRunner
	pub      live.Publisher
}

// NewChatService creates a new instance of chatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	relRepo repository.RelationshipRepository,
	userRepo repository.UserRepository,
	profileCache ProfileCacheStore,
	tx repository.TxRunner,
	pub live.Publisher,
) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		msgRepo:  msgRepo,
		relRepo:  relRepo,
		profiles: &profileLookup{userRepo: userRepo, cache: profileCache},
		tx:       tx,
		pub:      pub,
	}
}

// StartChat resolves or creates the chat for the pair. The deterministic pair
// ID means starting from either side lands on the same document.
func (s *chatService) StartChat(ctx context.Context, selfID, otherID primitive.ObjectID) (*ChatView, error) {
	if selfID == primitive.NilObjectID || otherID == primitive.NilObjectID {
		return nil, errors.New("both participant IDs are required")
	}
	if selfID == otherID {
		return nil, ErrCannotChatSelf
	}

	// Verify the counterpart exists before creating a chat with them.
	profiles, err := s.profiles.GetProfiles(ctx, []primitive.ObjectID{otherID})
	if err != nil {
		return nil, err
	}
	if _, ok := profiles[otherID]; !ok {
		return nil, ErrTargetNotFound
	}

	chat := &domain.Chat{
		ID:             domain.ChatIDFor(selfID, otherID),
		ParticipantIDs: []primitive.ObjectID{selfID, otherID},
	}
	chat, err = s.chatRepo.CreateIfAbsent(ctx, chat)
	if err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(live.TopicUser(otherID.Hex()), live.Event{Kind: live.KindChats, ID: chat.ID})
	}
	return s.toView(ctx, selfID, chat, profiles)
}

// ListChats returns the user's chats with counterpart profiles joined in one
// batched multi-get and the banner state resolved from the relationship
// records covering the user.
func (s *chatService) ListChats(ctx context.Context, selfID primitive.ObjectID) ([]ChatView, error) {
	chats, err := s.chatRepo.GetByParticipant(ctx, selfID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]primitive.ObjectID, 0, len(chats))
	for i := range chats {
		if other := chats[i].OtherParticipant(selfID); other != primitive.NilObjectID {
			otherIDs = append(otherIDs, other)
		}
	}
	profiles, err := s.profiles.GetProfiles(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	rels, err := s.relationsFor(ctx, selfID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(chats))
	for i := range chats {
		other := chats[i].OtherParticipant(selfID)
		profile, ok := profiles[other]
		if !ok {
			continue // Counterpart account is gone; skip the chat
		}
		views = append(views, buildChatView(&chats[i], &profile, rels[chats[i].ID]))
	}
	return views, nil
}

// GetChat returns a single chat view, enforcing membership.
func (s *chatService) GetChat(ctx context.Context, selfID primitive.ObjectID, chatID string) (*ChatView, error) {
	chat, err := s.loadOwnChat(ctx, selfID, chatID)
	if err != nil {
		return nil, err
	}
	return s.toView(ctx, selfID, chat, nil)
}

// SendMessage appends a message and denormalizes it as the chat's last
// message. The denormalized copy is display-only; the message log is the
// source of truth.
func (s *chatService) SendMessage(ctx context.Context, selfID primitive.ObjectID, chatID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	chat, err := s.loadOwnChat(ctx, selfID, chatID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ChatID:   chat.ID,
		SenderID: selfID,
		Text:     text,
	}
	// The append and the lastMessage denorm commit together; a failed denorm
	// must not leave a message the chat list does not reflect.
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.msgRepo.Create(txCtx, message); err != nil {
			return err
		}
		return s.chatRepo.SetLastMessage(txCtx, chat.ID, text)
	})
	if err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(live.TopicChat(chat.ID), live.Event{Kind: live.KindMessages, ID: message.ID.Hex()})
		for _, p := range chat.ParticipantIDs {
			s.pub.Publish(live.TopicUser(p.Hex()), live.Event{Kind: live.KindChats, ID: chat.ID})
		}
	}
	return message, nil
}

// ListMessages returns the full message log of a chat in ascending order,
// enforcing membership.
func (s *chatService) ListMessages(ctx context.Context, selfID primitive.ObjectID, chatID string) ([]domain.Message, error) {
	if _, err := s.loadOwnChat(ctx, selfID, chatID); err != nil {
		return nil, err
	}
	return s.msgRepo.GetByChatID(ctx, chatID)
}

// loadOwnChat fetches a chat and verifies selfID is a participant.
func (s *chatService) loadOwnChat(ctx context.Context, selfID primitive.ObjectID, chatID string) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if chat.OtherParticipant(selfID) == primitive.NilObjectID {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

// relationsFor loads every relationship record the user appears in, keyed by
// pair ID, so a whole chat list resolves banners from two queries.
func (s *chatService) relationsFor(ctx context.Context, selfID primitive.ObjectID) (map[string]*domain.Relationship, error) {
	byPair := make(map[string]*domain.Relationship)
	asInstructor, err := s.relRepo.GetByInstructorID(ctx, selfID)
	if err != nil {
		return nil, err
	}
	for i := range asInstructor {
		byPair[asInstructor[i].ID] = &asInstructor[i]
	}
	asClient, err := s.relRepo.GetByClientID(ctx, selfID)
	if err != nil {
		return nil, err
	}
	for i := range asClient {
		byPair[asClient[i].ID] = &asClient[i]
	}
	return byPair, nil
}

// toView builds a single ChatView, reusing profiles when the caller already
// resolved them.
func (s *chatService) toView(ctx context.Context, selfID primitive.ObjectID, chat *domain.Chat, profiles map[primitive.ObjectID]domain.User) (*ChatView, error) {
	other := chat.OtherParticipant(selfID)
	if profiles == nil {
		var err error
		profiles, err = s.profiles.GetProfiles(ctx, []primitive.ObjectID{other})
		if err != nil {
			return nil, err
		}
	}
	profile, ok := profiles[other]
	if !ok {
		return nil, ErrTargetNotFound
	}

	var rel *domain.Relationship
	if r, err := s.relRepo.GetByID(ctx, chat.ID); err == nil {
		rel = r
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	view := buildChatView(chat, &profile, rel)
	return &view, nil
}

// buildChatView derives the banner fields from the relationship record; a
// missing record means RelationNone.
func buildChatView(chat *domain.Chat, other *domain.User, rel *domain.Relationship) ChatView {
	view := ChatView{
		ID:               chat.ID,
		LastMessage:      chat.LastMessage,
		OtherParticipant: participantViewOf(other),
		ClientStatus:     domain.RelationNone,
	}
	if rel != nil {
		view.ClientStatus = rel.Status
		if rel.Status == domain.RelationPending {
			view.OfferSentBy = rel.OfferedBy.Hex()
		}
	}
	return view
}
