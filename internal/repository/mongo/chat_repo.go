package mongo

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatCollectionName = "chats"

// mongoChatRepository implements repository.ChatRepository.
type mongoChatRepository struct {
	collection *mongo.Collection
}

// NewMongoChatRepository creates a new Chat repository backed by MongoDB.
func NewMongoChatRepository(db *mongo.Database) repository.ChatRepository {
	return &mongoChatRepository{
		collection: db.Collection(chatCollectionName),
	}
}

// CreateIfAbsent inserts the chat unless a chat with the same deterministic ID
// already exists, in which case the existing document is returned. Starting a
// chat from either side of a pair therefore resolves to the same document.
func (r *mongoChatRepository) CreateIfAbsent(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if chat.ID == "" || len(chat.ParticipantIDs) != 2 {
		return nil, errors.New("chat requires a derived ID and exactly two participants")
	}

	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, chat)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.GetByID(ctx, chat.ID)
		}
		return nil, err
	}
	return chat, nil
}

// GetByID retrieves a chat by its pair-derived ID.
func (r *mongoChatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	var chat domain.Chat
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// GetByParticipant retrieves all chats the user takes part in, most recently
// active first.
func (r *mongoChatRepository) GetByParticipant(ctx context.Context, userID primitive.ObjectID) ([]domain.Chat, error) {
	var chats []domain.Chat
	filter := bson.M{"participantIds": userID} // Array membership
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return chats, nil
}

// SetLastMessage denormalizes the newest message text onto the chat document.
func (r *mongoChatRepository) SetLastMessage(ctx context.Context, id string, text string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"lastMessage": text,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureChatIndexes creates necessary indexes for the chats collection.
func EnsureChatIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participantIds", Value: 1}}, // Multikey, serves the list query
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Index creation failure is not fatal; queries still work unindexed.
	}
}
