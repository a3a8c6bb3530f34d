// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user record in the users collection.
//
// The application never holds authoritative user state; every request
// reads and writes through to MongoDB. Email and username are unique
// (enforced by indexes, see system/indexes).
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"` // stored lowercase
	FullName string             `bson:"full_name,omitempty" json:"full_name,omitempty"`

	IsActive    bool `bson:"is_active" json:"is_active"`
	IsSuperuser bool `bson:"is_superuser" json:"is_superuser"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Username and full name length bounds, shared by input validation.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	FullNameMaxLen = 100
)
