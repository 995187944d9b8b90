// Package auth owns the user model, the user store, and everything related to
// authentication and access control: registration, login/logout with opaque
// session tokens, the role gate middleware and the passive access recorder.
package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles known to the system. They gate endpoint access through per-route
// allow-lists.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleStation = "station"
)

// User represents a user document in the users collection.
//
// AuthToken is the opaque session token: set at login, nil when logged out.
// Tokens never expire on their own; logout is the only revocation. LastAccess
// is stamped by the passive access recorder for students only.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role       string             `bson:"role" json:"role"`
	AuthToken  *string            `bson:"authToken" json:"authToken,omitempty"`
	LastLogin  *time.Time         `bson:"lastLogin" json:"lastLogin,omitempty"`
	LastAccess *time.Time         `bson:"lastAccess,omitempty" json:"lastAccess,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewUser builds a user record for insertion. The password must already be
// hashed; the token and login/access timestamps start out unset.
func NewUser(username, email, hashedPassword, role string, createdAt time.Time) *User {
	return &User{
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		CreatedAt: createdAt,
	}
}
