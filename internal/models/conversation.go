package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation groups the ordered message history of one chat session.
// SessionID is the externally visible handle; ID is the store's own
// document identifier.
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string             `bson:"user_id" json:"user_id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	Messages  []Message          `bson:"messages" json:"messages"`
}
