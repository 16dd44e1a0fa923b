package domain

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalType type for the two goal categories
type GoalType string

const (
	GoalWorkout GoalType = "workout"
	GoalDiet    GoalType = "diet"
)

// Weekday tags used in Goal.Days and weeklyProgress keys ("Sun".."Sat").
var weekdayTags = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayTag returns the three-letter tag for t's weekday.
func WeekdayTag(t time.Time) string {
	return weekdayTags[int(t.Weekday())]
}

// SubTask is one checklist item inside a goal.
type SubTask struct {
	Name   string `bson:"name" json:"name"`
	Amount int    `bson:"amount" json:"amount"`
	Unit   string `bson:"unit" json:"unit"`                     // e.g. "reps", "glasses"
	Rest   string `bson:"rest,omitempty" json:"rest,omitempty"` // Optional rest between sets
}

// Goal is a scheduled workout or diet goal owned by a user.
//
// WeeklyProgress is a sparse map: a key "week{N}-{Day}" present and true means
// the goal was completed on that scheduled day of that week. Absent keys mean
// not completed. Only completed days are recorded; partial checklist state is
// session-local on the client and never persisted.
type Goal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Title     string             `bson:"title" json:"title"`
	Type      GoalType           `bson:"type" json:"type"`
	Days      []string           `bson:"days" json:"days"`         // Scheduled weekday tags
	Duration  int                `bson:"duration" json:"duration"` // Duration in weeks
	SubTasks  []SubTask          `bson:"subTasks" json:"subTasks"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`

	WeeklyProgress map[string]bool `bson:"weeklyProgress,omitempty" json:"weeklyProgress,omitempty"`

	// Set when the goal was materialized from an instructor assignment.
	CreatedBy *AssignedBy `bson:"createdBy,omitempty" json:"createdBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CurrentWeek returns the 1-based week bucket for now relative to the goal's
// start date. This is an elapsed-time bucket (7-day windows from the start
// date), not a calendar week.
func (g *Goal) CurrentWeek(now time.Time) int {
	start := time.Date(g.StartDate.Year(), g.StartDate.Month(), g.StartDate.Day(), 0, 0, 0, 0, g.StartDate.Location())
	diff := now.Sub(start)
	return int(math.Floor(diff.Hours()/(24*7))) + 1
}

// ProgressKey builds the weeklyProgress key for a {week, day} slot.
func ProgressKey(week int, day string) string {
	return fmt.Sprintf("week%d-%s", week, day)
}

// ProgressPercent is the ratio of recorded completed days to the theoretical
// total (len(Days) * Duration), rounded to the nearest integer percentage.
func (g *Goal) ProgressPercent() int {
	total := len(g.Days) * g.Duration
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(len(g.WeeklyProgress)) / float64(total) * 100))
}

// IsScheduledOn reports whether day is one of the goal's scheduled weekdays.
func (g *Goal) IsScheduledOn(day string) bool {
	for _, d := range g.Days {
		if d == day {
			return true
		}
	}
	return false
}

// CompletedOn reports whether the {week, day} slot is already recorded.
func (g *Goal) CompletedOn(week int, day string) bool {
	return g.WeeklyProgress[ProgressKey(week, day)]
}
