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

const reminderCollectionName = "reminders"

// mongoReminderRepository implements repository.ReminderRepository.
type mongoReminderRepository struct {
	collection *mongo.Collection
}

// NewMongoReminderRepository creates a new Reminder repository backed by MongoDB.
func NewMongoReminderRepository(db *mongo.Database) repository.ReminderRepository {
	return &mongoReminderRepository{
		collection: db.Collection(reminderCollectionName),
	}
}

// Create inserts a new reminder.
func (r *mongoReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) (primitive.ObjectID, error) {
	if reminder.OwnerID == primitive.NilObjectID || reminder.Text == "" {
		return primitive.NilObjectID, errors.New("reminder requires ownerId and text")
	}

	reminder.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, reminder)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted reminder ID")
	}

	return insertedID, nil
}

// GetByOwnerID retrieves all reminders of a user, newest first.
func (r *mongoReminderRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	filter := bson.M{"ownerId": ownerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return reminders, nil
}

// SetCompleted toggles the completed flag, checking ownership in the filter.
func (r *mongoReminderRepository) SetCompleted(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID, completed bool) error {
	filter := bson.M{"_id": id, "ownerId": ownerID}
	update := bson.M{
		"$set": bson.M{
			"completed": completed,
			"updatedAt": time.Now().UTC(),
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

// Delete removes a reminder, checking ownership in the same filter.
func (r *mongoReminderRepository) Delete(ctx context.Context, id primitive.ObjectID, ownerID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "ownerId": ownerID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureReminderIndexes creates necessary indexes for the reminders collection.
func EnsureReminderIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Index creation failure is not fatal; queries still work unindexed.
	}
}
