package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reminder is a short to-do owned by a user. CreatedBy is set when the
// reminder was materialized from an instructor assignment rather than
// self-created.
type Reminder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Text      string             `bson:"text" json:"text"`
	Completed bool               `bson:"completed" json:"completed"`
	CreatedBy *AssignedBy        `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
