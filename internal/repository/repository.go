package repository

import (
	"coachdesk/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("already exists")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes fn inside a single storage transaction. Every repository
// call made with the context passed to fn joins that transaction; if fn
// returns an error the whole set of writes is rolled back.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) // Batched multi-get for joins
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// ChatRepository defines the interface for interacting with chat documents.
// Chats are keyed by the deterministic pair ID, never deleted.
type ChatRepository interface {
	CreateIfAbsent(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	GetByParticipant(ctx context.Context, userID primitive.ObjectID) ([]domain.Chat, error)
	SetLastMessage(ctx context.Context, id string, text string) error
}

// MessageRepository defines the interface for the append-only message log.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error)
	GetByChatID(ctx context.Context, chatID string) ([]domain.Message, error) // Ascending by creation time
}

// RelationshipRepository defines the interface for the authoritative
// instructor/client relationship records.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *domain.Relationship) error
	GetByID(ctx context.Context, id string) (*domain.Relationship, error)
	GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Relationship, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Relationship, error)
	SetStatus(ctx context.Context, id string, status domain.RelationStatus) error
	Delete(ctx context.Context, id string) error
}

// GoalRepository defines the interface for interacting with goal data.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Goal, error)
	MarkDayComplete(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID, progressKey string) error
	Delete(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID) error // Ensure caller owns the goal
}

// ReminderRepository defines the interface for interacting with reminders.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) (primitive.ObjectID, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Reminder, error) // Newest first
	SetCompleted(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID, completed bool) error
	Delete(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID) error
}

// AssignmentRepository defines the interface for the pending-assignment inbox.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.PendingAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PendingAssignment, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.PendingAssignment, error)
	Delete(ctx context.Context, id primitive.ObjectID, clientID primitive.ObjectID) error
	// DeleteOffer removes the client-offer assignment a given instructor placed
	// in a client's inbox, keyed by sender rather than document ID.
	DeleteOffer(ctx context.Context, clientID, instructorID primitive.ObjectID) error
}
