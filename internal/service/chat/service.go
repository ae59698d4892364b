package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shopassist/internal/catalog"
	"shopassist/internal/models"
)

// Only store-side failures surface as errors from a turn; everything
// oracle-side degrades into a best-effort reply.
var (
	// ErrStoreUnavailable marks store connectivity failure at turn start.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrPersistFailed marks a failed write-back after the reply was
	// already computed.
	ErrPersistFailed = errors.New("persist conversation failed")
	// ErrConversationVanished marks a located document missing at update
	// time.
	ErrConversationVanished = errors.New("conversation vanished before update")
)

// Oracle is the text-generation model behind both the routing and the
// synthesis call.
type Oracle interface {
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

// ConversationStore persists chat sessions.
type ConversationStore interface {
	FindByUserSession(ctx context.Context, userID, sessionID string) (*models.Conversation, error)
	InsertConversation(ctx context.Context, conv *models.Conversation) error
	ReplaceMessages(ctx context.Context, id primitive.ObjectID, messages []models.Message) error
}

// QueryExecutor runs one catalog lookup.
type QueryExecutor interface {
	Execute(ctx context.Context, queryType catalog.QueryType, params catalog.Params) catalog.Result
}

// Service orchestrates one chat turn: load-or-create the conversation,
// route the intent, execute a lookup if asked for, synthesize the reply,
// and write the history back.
type Service struct {
	store    ConversationStore
	executor QueryExecutor
	oracle   Oracle
}

// NewService wires the turn pipeline.
func NewService(store ConversationStore, executor QueryExecutor, oracle Oracle) *Service {
	return &Service{store: store, executor: executor, oracle: oracle}
}

// TurnResult is the outcome of one completed chat turn.
type TurnResult struct {
	SessionID string
	Reply     string
	History   []models.Message
}

// HandleTurn processes one user message. A stale or foreign sessionID is
// silently replaced by a fresh session; the caller sees the replacement in
// the returned SessionID.
func (s *Service) HandleTurn(ctx context.Context, userID, message, sessionID string) (*TurnResult, error) {
	conv, err := s.loadOrCreate(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	conv.Messages = append(conv.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: time.Now().UTC(),
	})

	reply := s.respond(ctx, conv.Messages)

	conv.Messages = append(conv.Messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})

	if err := s.persist(ctx, conv); err != nil {
		return nil, err
	}
	return &TurnResult{
		SessionID: conv.SessionID,
		Reply:     reply,
		History:   conv.Messages,
	}, nil
}

func (s *Service) loadOrCreate(ctx context.Context, userID, sessionID string) (*models.Conversation, error) {
	if sessionID != "" {
		conv, err := s.store.FindByUserSession(ctx, userID, sessionID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		log.Printf("INFO: session %q not found for user %q, starting a new session", sessionID, userID)
	}

	conv := &models.Conversation{
		UserID:    userID,
		SessionID: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Messages:  []models.Message{},
	}
	if err := s.store.InsertConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	log.Printf("INFO: created new conversation session %s for user %s", conv.SessionID, userID)
	return conv, nil
}

// respond runs the two-step oracle pipeline. It always returns a reply;
// oracle failures and malformed output downgrade to fixed fallbacks.
func (s *Service) respond(ctx context.Context, history []models.Message) string {
	raw, err := s.oracle.Generate(ctx, routingPrompt(history))
	if err != nil {
		log.Printf("ERROR: intent routing call failed: %v", err)
		return apologyReply
	}

	d := parseDecision(raw)
	switch d.Intent {
	case intentQueryData:
		return s.answerQuery(ctx, d)
	case intentClarify:
		if d.Clarification != "" {
			return d.Clarification
		}
		return defaultClarifyText
	default:
		if d.Response != "" {
			return d.Response
		}
		return defaultGreeting
	}
}

func (s *Service) answerQuery(ctx context.Context, d decision) string {
	queryType := catalog.QueryType(d.QueryType)
	result := s.executor.Execute(ctx, queryType, stringParams(d.Parameters))
	if result.Err != "" {
		return "I encountered an issue retrieving that information: " + result.Err
	}

	raw, err := s.oracle.Generate(ctx, synthesisPrompt(queryType, result))
	if err != nil {
		log.Printf("ERROR: synthesis call failed: %v", err)
		return apologyReply
	}
	return strings.TrimSpace(raw)
}

// persist writes the full message list back, retrying once before giving
// up. The turn's reply is lost to the client when both attempts fail.
func (s *Service) persist(ctx context.Context, conv *models.Conversation) error {
	err := s.store.ReplaceMessages(ctx, conv.ID, conv.Messages)
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrConversationVanished
	}
	log.Printf("WARNING: persist conversation %s failed, retrying once: %v", conv.SessionID, err)

	err = s.store.ReplaceMessages(ctx, conv.ID, conv.Messages)
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrConversationVanished
	}
	return fmt.Errorf("%w: %v", ErrPersistFailed, err)
}
