package domain

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a direct conversation between two users. Its ID is derived from the
// sorted participant pair, which guarantees at most one chat document per
// unordered pair regardless of which side starts the conversation.
type Chat struct {
	ID             string               `bson:"_id" json:"id"`
	ParticipantIDs []primitive.ObjectID `bson:"participantIds" json:"participantIds"`
	LastMessage    string               `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"` // Denormalized from the newest message
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ChatIDFor derives the deterministic chat ID for a participant pair.
// The derivation is order-independent: ChatIDFor(a, b) == ChatIDFor(b, a).
func ChatIDFor(a, b primitive.ObjectID) string {
	ids := []string{a.Hex(), b.Hex()}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// OtherParticipant returns the participant that is not self. Returns
// NilObjectID when self is not a participant of the chat.
func (c *Chat) OtherParticipant(self primitive.ObjectID) primitive.ObjectID {
	found := false
	other := primitive.NilObjectID
	for _, id := range c.ParticipantIDs {
		if id == self {
			found = true
		} else {
			other = id
		}
	}
	if !found {
		return primitive.NilObjectID
	}
	return other
}

// Message is a single chat message. Messages are append-only.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    string             `bson:"chatId" json:"chatId"`
	SenderID  primitive.ObjectID `bson:"senderId" json:"senderId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
