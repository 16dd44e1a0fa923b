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

const assignmentCollectionName = "pending_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository.
// Documents live only while an offer is in flight; both accept and decline
// end in a delete.
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new pending assignment into a client's inbox. A duplicate
// client-offer from the same instructor violates the partial unique index and
// maps to ErrConflict.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.PendingAssignment) (primitive.ObjectID, error) {
	if assignment.ClientID == primitive.NilObjectID || assignment.Type == "" ||
		assignment.AssignedBy.UID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId, type, and assignedBy")
	}

	assignment.ID = primitive.NewObjectID()
	assignment.AssignedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}

	return insertedID, nil
}

// GetByID retrieves a pending assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PendingAssignment, error) {
	var assignment domain.PendingAssignment
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByClientID retrieves a user's inbox, newest first.
func (r *mongoAssignmentRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.PendingAssignment, error) {
	var assignments []domain.PendingAssignment
	filter := bson.M{"clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// Delete removes a pending assignment, checking inbox ownership in the filter.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID, clientID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "clientId": clientID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteOffer removes the client-offer an instructor placed in a client's
// inbox. Deleting an offer that is already gone is not an error: the decline
// path must stay idempotent.
func (r *mongoAssignmentRepository) DeleteOffer(ctx context.Context, clientID, instructorID primitive.ObjectID) error {
	filter := bson.M{
		"clientId":       clientID,
		"assignedBy.uid": instructorID,
		"type":           domain.AssignmentClientOffer,
	}

	_, err := r.collection.DeleteMany(ctx, filter)
	return err
}

// EnsureAssignmentIndexes creates necessary indexes for the pending_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "assignedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// At most one in-flight client-offer per (instructor, client) pair.
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "assignedBy.uid", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"type": domain.AssignmentClientOffer}),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Index creation failure is not fatal; queries still work unindexed.
	}
}
