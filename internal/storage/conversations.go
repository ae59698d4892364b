package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopassist/internal/models"
)

// FindByUserSession returns the conversation matching the (user_id,
// session_id) pair, or mongo.ErrNoDocuments when none exists.
func (s *Store) FindByUserSession(ctx context.Context, userID, sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.collection(CollConversations).
		FindOne(ctx, bson.M{"user_id": userID, "session_id": sessionID}).
		Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

// FindBySession returns the conversation with the given external handle.
func (s *Store) FindBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.collection(CollConversations).
		FindOne(ctx, bson.M{"session_id": sessionID}).
		Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("find conversation by session: %w", err)
	}
	return &conv, nil
}

// InsertConversation stores a new conversation and fills in the assigned
// document id.
func (s *Store) InsertConversation(ctx context.Context, conv *models.Conversation) error {
	res, err := s.collection(CollConversations).InsertOne(ctx, conv)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		conv.ID = id
	}
	return nil
}

// ReplaceMessages writes back the full message list of a conversation.
// Returns mongo.ErrNoDocuments when the document no longer exists.
func (s *Store) ReplaceMessages(ctx context.Context, id primitive.ObjectID, messages []models.Message) error {
	res, err := s.collection(CollConversations).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"messages": messages}},
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListConversations returns every session for a user, newest first by
// creation time.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	cur, err := s.collection(CollConversations).Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cur.Close(ctx)

	conversations := make([]models.Conversation, 0)
	if err := cur.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return conversations, nil
}
