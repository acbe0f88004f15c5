package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is an application account allowed to manage pacing targets.
// Stored in the users collection. Unique by username and by email.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // Never serialize password hash
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ParseUserID parses a hex object id carried in a token or path parameter.
func ParseUserID(id string) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(id)
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID       *bson.ObjectID
	Username *string
	Email    *string
}
