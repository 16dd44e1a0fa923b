package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUser       Role = "user"
	RoleInstructor Role = "instructor"
)

// User represents an account in the system (either a trainee or an Instructor).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`

	// --- Profile fields (second registration step) ---
	FirstName    string `bson:"firstName" json:"firstName"`
	LastName     string `bson:"lastName" json:"lastName"`
	Username     string `bson:"username" json:"username"` // Should be unique, used for directory search
	Age          int    `bson:"age,omitempty" json:"age,omitempty"`
	Gender       string `bson:"gender,omitempty" json:"gender,omitempty"`
	HealthStatus string `bson:"healthStatus,omitempty" json:"healthStatus,omitempty"`
	Goals        string `bson:"goals,omitempty" json:"goals,omitempty"` // Free-text fitness goal
	Biography    string `bson:"biography,omitempty" json:"biography,omitempty"`
	ProfileIcon  string `bson:"profileIcon,omitempty" json:"profileIcon,omitempty"` // Object key in S3, not a URL

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
