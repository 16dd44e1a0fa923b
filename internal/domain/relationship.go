package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationStatus tracks the lifecycle of an instructor/client pair.
// Transitions: none -> pending (offer), pending -> accepted (accept),
// pending -> none (decline), accepted -> none (remove).
type RelationStatus string

const (
	RelationNone     RelationStatus = "none" // No document exists; never stored
	RelationPending  RelationStatus = "pending"
	RelationAccepted RelationStatus = "accepted"
)

// Relationship is the single authoritative record for an instructor/client
// pair. Chat banners and rosters derive their state from this document;
// nothing else stores a copy of the status.
type Relationship struct {
	ID           string             `bson:"_id" json:"id"` // Same pair key as the chat
	InstructorID primitive.ObjectID `bson:"instructorId" json:"instructorId"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"`
	Status       RelationStatus     `bson:"status" json:"status"`
	OfferedBy    primitive.ObjectID `bson:"offeredBy" json:"offeredBy"` // Who initiated the pending offer
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RelationshipIDFor derives the pair key for an instructor/client pair.
// Identical to the chat key so one lookup serves both.
func RelationshipIDFor(instructorID, clientID primitive.ObjectID) string {
	return ChatIDFor(instructorID, clientID)
}
