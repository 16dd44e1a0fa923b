package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the MongoDB implementations'
// error contracts (ErrNotFound, ErrConflict, ErrUpdateFailed) so services
// can be exercised without a database.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		if u.ID == primitive.NilObjectID {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type fakeRelationshipRepo struct {
	rels map[string]*domain.Relationship
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{rels: make(map[string]*domain.Relationship)}
}

func (r *fakeRelationshipRepo) Create(_ context.Context, rel *domain.Relationship) error {
	if _, ok := r.rels[rel.ID]; ok {
		return repository.ErrConflict
	}
	rel.CreatedAt = time.Now()
	rel.UpdatedAt = rel.CreatedAt
	cp := *rel
	r.rels[rel.ID] = &cp
	return nil
}

func (r *fakeRelationshipRepo) GetByID(_ context.Context, id string) (*domain.Relationship, error) {
	rel, ok := r.rels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rel
	return &cp, nil
}

func (r *fakeRelationshipRepo) GetByInstructorID(_ context.Context, instructorID primitive.ObjectID) ([]domain.Relationship, error) {
	var out []domain.Relationship
	for _, rel := range r.rels {
		if rel.InstructorID == instructorID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Relationship, error) {
	var out []domain.Relationship
	for _, rel := range r.rels {
		if rel.ClientID == clientID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) SetStatus(_ context.Context, id string, status domain.RelationStatus) error {
	rel, ok := r.rels[id]
	if !ok {
		return repository.ErrNotFound
	}
	rel.Status = status
	rel.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRelationshipRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rels, id)
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[primitive.ObjectID]*domain.PendingAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*domain.PendingAssignment)}
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *domain.PendingAssignment) (primitive.ObjectID, error) {
	if a.Type == domain.AssignmentClientOffer {
		for _, existing := range r.assignments {
			if existing.Type == domain.AssignmentClientOffer &&
				existing.ClientID == a.ClientID &&
				existing.AssignedBy.UID == a.AssignedBy.UID {
				return primitive.NilObjectID, repository.ErrConflict
			}
		}
	}
	a.ID = primitive.NewObjectID()
	a.AssignedAt = time.Now()
	cp := *a
	r.assignments[a.ID] = &cp
	return a.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PendingAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.PendingAssignment, error) {
	var out []domain.PendingAssignment
	for _, a := range r.assignments {
		if a.ClientID == clientID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id, clientID primitive.ObjectID) error {
	a, ok := r.assignments[id]
	if !ok || a.ClientID != clientID {
		return repository.ErrDeleteFailed
	}
	delete(r.assignments, id)
	return nil
}

func (r *fakeAssignmentRepo) DeleteOffer(_ context.Context, clientID, instructorID primitive.ObjectID) error {
	for id, a := range r.assignments {
		if a.Type == domain.AssignmentClientOffer && a.ClientID == clientID && a.AssignedBy.UID == instructorID {
			delete(r.assignments, id)
		}
	}
	return nil // Idempotent, like DeleteMany
}

type fakeGoalRepo struct {
	goals map[primitive.ObjectID]*domain.Goal
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{goals: make(map[primitive.ObjectID]*domain.Goal)}
}

func (r *fakeGoalRepo) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	goal.ID = primitive.NewObjectID()
	now := time.Now()
	if goal.StartDate.IsZero() {
		goal.StartDate = now
	}
	goal.CreatedAt = now
	goal.UpdatedAt = now
	cp := *goal
	r.goals[goal.ID] = &cp
	return goal.ID, nil
}

func (r *fakeGoalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	g, ok := r.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGoalRepo) GetByOwnerID(_ context.Context, ownerID primitive.ObjectID) ([]domain.Goal, error) {
	var out []domain.Goal
	for _, g := range r.goals {
		if g.OwnerID == ownerID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeGoalRepo) MarkDayComplete(_ context.Context, id, ownerID primitive.ObjectID, progressKey string) error {
	g, ok := r.goals[id]
	if !ok || g.OwnerID != ownerID || g.WeeklyProgress[progressKey] {
		return repository.ErrUpdateFailed
	}
	if g.WeeklyProgress == nil {
		g.WeeklyProgress = make(map[string]bool)
	}
	g.WeeklyProgress[progressKey] = true
	g.UpdatedAt = time.Now()
	return nil
}

func (r *fakeGoalRepo) Delete(_ context.Context, id, ownerID primitive.ObjectID) error {
	g, ok := r.goals[id]
	if !ok || g.OwnerID != ownerID {
		return repository.ErrDeleteFailed
	}
	delete(r.goals, id)
	return nil
}

type fakeReminderRepo struct {
	reminders map[primitive.ObjectID]*domain.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[primitive.ObjectID]*domain.Reminder)}
}

func (r *fakeReminderRepo) Create(_ context.Context, reminder *domain.Reminder) (primitive.ObjectID, error) {
	reminder.ID = primitive.NewObjectID()
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = reminder.CreatedAt
	cp := *reminder
	r.reminders[reminder.ID] = &cp
	return reminder.ID, nil
}

func (r *fakeReminderRepo) GetByOwnerID(_ context.Context, ownerID primitive.ObjectID) ([]domain.Reminder, error) {
	var out []domain.Reminder
	for _, rem := range r.reminders {
		if rem.OwnerID == ownerID {
			out = append(out, *rem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeReminderRepo) SetCompleted(_ context.Context, id, ownerID primitive.ObjectID, completed bool) error {
	rem, ok := r.reminders[id]
	if !ok || rem.OwnerID != ownerID {
		return repository.ErrUpdateFailed
	}
	rem.Completed = completed
	rem.UpdatedAt = time.Now()
	return nil
}

func (r *fakeReminderRepo) Delete(_ context.Context, id, ownerID primitive.ObjectID) error {
	rem, ok := r.reminders[id]
	if !ok || rem.OwnerID != ownerID {
		return repository.ErrDeleteFailed
	}
	delete(r.reminders, id)
	return nil
}

type fakeChatRepo struct {
	chats map[string]*domain.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*domain.Chat)}
}

func (r *fakeChatRepo) CreateIfAbsent(_ context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if existing, ok := r.chats[chat.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	cp := *chat
	r.chats[chat.ID] = &cp
	out := *chat
	return &out, nil
}

func (r *fakeChatRepo) GetByID(_ context.Context, id string) (*domain.Chat, error) {
	chat, ok := r.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (r *fakeChatRepo) GetByParticipant(_ context.Context, userID primitive.ObjectID) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, chat := range r.chats {
		for _, p := range chat.ParticipantIDs {
			if p == userID {
				out = append(out, *chat)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeChatRepo) SetLastMessage(_ context.Context, id, text string) error {
	chat, ok := r.chats[id]
	if !ok {
		return repository.ErrNotFound
	}
	chat.LastMessage = text
	chat.UpdatedAt = time.Now()
	return nil
}

type fakeMessageRepo struct {
	messages []domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo { return &fakeMessageRepo{} }

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.Message) (primitive.ObjectID, error) {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, *message)
	return message.ID, nil
}

func (r *fakeMessageRepo) GetByChatID(_ context.Context, chatID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeTxRunner runs fn directly; the fakes have no partial-write failure
// modes so the transaction boundary collapses to a plain call.
type fakeTxRunner struct{}

func (fakeTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic string
	Event live.Event
}

func (p *recordingPublisher) Publish(topic string, ev live.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Event: ev})
}

func (p *recordingPublisher) kindsFor(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []string
	for _, e := range p.events {
		if e.Topic == topic {
			kinds = append(kinds, e.Event.Kind)
		}
	}
	return kinds
}
