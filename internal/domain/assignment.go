package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentType type for the pending-assignment inbox
type AssignmentType string

const (
	AssignmentClientOffer AssignmentType = "client-offer" // Instructor offers to coach the user
	AssignmentReminder    AssignmentType = "reminder"     // Proposed reminder text
	AssignmentGoal        AssignmentType = "goal"         // Proposed goal template
)

// AssignedBy is the denormalized back-reference to the instructor who pushed
// an assignment (or created a materialized goal/reminder).
type AssignedBy struct {
	UID         primitive.ObjectID `bson:"uid" json:"uid"`
	Name        string             `bson:"name" json:"name"`
	ProfileIcon string             `bson:"profileIcon,omitempty" json:"profileIcon,omitempty"`
}

// GoalTemplate is the payload of a goal assignment: everything a Goal needs
// except ownership and progress, which are stamped on acceptance.
type GoalTemplate struct {
	Title    string    `bson:"title" json:"title"`
	Type     GoalType  `bson:"type" json:"type"`
	Days     []string  `bson:"days" json:"days"`
	Duration int       `bson:"duration" json:"duration"`
	SubTasks []SubTask `bson:"subTasks" json:"subTasks"`
}

// AssignmentPayload carries the proposed content. Exactly one of Text or Goal
// is set, matching the assignment type.
type AssignmentPayload struct {
	Text string        `bson:"text,omitempty" json:"text,omitempty"`
	Goal *GoalTemplate `bson:"goal,omitempty" json:"goal,omitempty"`
}

// PendingAssignment is an in-flight offer sitting in the target user's inbox.
// It follows a propose/materialize-or-discard pattern: accepting copies the
// payload into the user's own collection and deletes the assignment in the
// same transaction; declining just deletes it.
type PendingAssignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"` // Whose inbox this sits in
	Type       AssignmentType     `bson:"type" json:"type"`
	AssignedBy AssignedBy         `bson:"assignedBy" json:"assignedBy"`
	Payload    *AssignmentPayload `bson:"payload,omitempty" json:"payload,omitempty"` // Nil for client-offer
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
}
