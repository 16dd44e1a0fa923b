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

const relationshipCollectionName = "relationships"

// mongoRelationshipRepository implements repository.RelationshipRepository.
// One document per instructor/client pair, keyed by the pair ID. Absence of a
// document means status "none".
type mongoRelationshipRepository struct {
	collection *mongo.Collection
}

// NewMongoRelationshipRepository creates a new Relationship repository backed by MongoDB.
func NewMongoRelationshipRepository(db *mongo.Database) repository.RelationshipRepository {
	return &mongoRelationshipRepository{
		collection: db.Collection(relationshipCollectionName),
	}
}

// Create inserts a new relationship record. Returns ErrConflict when a record
// for the pair already exists (a second offer while one is in flight).
func (r *mongoRelationshipRepository) Create(ctx context.Context, rel *domain.Relationship) error {
	if rel.ID == "" || rel.InstructorID == primitive.NilObjectID || rel.ClientID == primitive.NilObjectID {
		return errors.New("relationship requires a pair ID, instructorId, and clientId")
	}

	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now
	if rel.Status == "" {
		rel.Status = domain.RelationPending
	}

	_, err := r.collection.InsertOne(ctx, rel)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID retrieves the relationship record for a pair.
func (r *mongoRelationshipRepository) GetByID(ctx context.Context, id string) (*domain.Relationship, error) {
	var rel domain.Relationship
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&rel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// GetByInstructorID retrieves all relationship records of an instructor
// (the roster, pending offers included).
func (r *mongoRelationshipRepository) GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Relationship, error) {
	return r.find(ctx, bson.M{"instructorId": instructorID})
}

// GetByClientID retrieves all relationship records a user appears in as client.
func (r *mongoRelationshipRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Relationship, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

func (r *mongoRelationshipRepository) find(ctx context.Context, filter bson.M) ([]domain.Relationship, error) {
	var rels []domain.Relationship
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &rels); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return rels, nil
}

// SetStatus updates the status of an existing relationship record.
func (r *mongoRelationshipRepository) SetStatus(ctx context.Context, id string, status domain.RelationStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":    status,
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

// Delete removes the relationship record, returning the pair to "none".
func (r *mongoRelationshipRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRelationshipIndexes creates necessary indexes for the relationships collection.
func EnsureRelationshipIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "instructorId", Value: 1}}, // Roster query
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}}, // "My instructors" query
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Index creation failure is not fatal; queries still work unindexed.
	}
}
