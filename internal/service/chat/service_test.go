package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shopassist/internal/catalog"
	"shopassist/internal/models"
)

type memStore struct {
	conversations map[string]*models.Conversation
	replaceErrs   []error
	replaceCalls  int
}

func newMemStore() *memStore {
	return &memStore{conversations: make(map[string]*models.Conversation)}
}

func (m *memStore) FindByUserSession(_ context.Context, userID, sessionID string) (*models.Conversation, error) {
	for _, conv := range m.conversations {
		if conv.UserID == userID && conv.SessionID == sessionID {
			clone := *conv
			clone.Messages = append([]models.Message(nil), conv.Messages...)
			return &clone, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memStore) InsertConversation(_ context.Context, conv *models.Conversation) error {
	conv.ID = primitive.NewObjectID()
	clone := *conv
	m.conversations[conv.ID.Hex()] = &clone
	return nil
}

func (m *memStore) ReplaceMessages(_ context.Context, id primitive.ObjectID, messages []models.Message) error {
	m.replaceCalls++
	if len(m.replaceErrs) > 0 {
		err := m.replaceErrs[0]
		m.replaceErrs = m.replaceErrs[1:]
		if err != nil {
			return err
		}
	}
	conv, ok := m.conversations[id.Hex()]
	if !ok {
		return mongo.ErrNoDocuments
	}
	conv.Messages = append([]models.Message(nil), messages...)
	return nil
}

type mockOracle struct {
	responses []string
	err       error
	calls     int
}

func (m *mockOracle) Generate(_ context.Context, _ []*schema.Message) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return `{"intent": "general_chat", "response": "hello"}`, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

type recordingExecutor struct {
	queryType catalog.QueryType
	params    catalog.Params
	result    catalog.Result
}

func (r *recordingExecutor) Execute(_ context.Context, queryType catalog.QueryType, params catalog.Params) catalog.Result {
	r.queryType = queryType
	r.params = params
	return r.result
}

func TestHandleTurnCreatesNewSession(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	result, err := svc.HandleTurn(context.Background(), "u1", "hello there", "")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatalf("expected a freshly generated session id")
	}
	if len(result.History) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(result.History))
	}
	if result.History[0].Role != models.RoleUser || result.History[0].Content != "hello there" {
		t.Fatalf("user message not first: %#v", result.History[0])
	}
	if result.History[1].Role != models.RoleAssistant || result.History[1].Content != "hello" {
		t.Fatalf("assistant message not appended: %#v", result.History[1])
	}
}

func TestHandleTurnReplacesStaleSession(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	result, err := svc.HandleTurn(context.Background(), "u1", "hi", "no-such-session")
	if err != nil {
		t.Fatalf("stale session must not error: %v", err)
	}
	if result.SessionID == "no-such-session" {
		t.Fatalf("expected a replacement session id")
	}
}

func TestHandleTurnDoesNotLeakSessionsAcrossUsers(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	first, err := svc.HandleTurn(context.Background(), "u1", "hi", "")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	second, err := svc.HandleTurn(context.Background(), "u2", "hi", first.SessionID)
	if err != nil {
		t.Fatalf("foreign session must not error: %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatalf("user u2 must not continue u1's session")
	}
}

func TestHandleTurnQueryFlow(t *testing.T) {
	store := newMemStore()
	executor := &recordingExecutor{result: catalog.Result{Data: map[string]any{
		"product_name": "Classic T-Shirt",
		"stock":        int64(12),
	}}}
	oracle := &mockOracle{responses: []string{
		`{"intent": "query_data", "query_type": "product_stock", "parameters": {"product_name": "Classic T-Shirt"}}`,
		"There are 12 units of Classic T-Shirt left in stock.",
	}}
	svc := NewService(store, executor, oracle)

	result, err := svc.HandleTurn(context.Background(), "u1", "How many Classic T-Shirts are left in stock?", "")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if executor.queryType != catalog.QueryProductStock {
		t.Fatalf("expected product_stock query, got %q", executor.queryType)
	}
	if executor.params["product_name"] != "Classic T-Shirt" {
		t.Fatalf("parameters not forwarded: %#v", executor.params)
	}
	if !strings.Contains(result.Reply, "12") {
		t.Fatalf("expected numeric stock count in reply, got %q", result.Reply)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected routing plus synthesis call, got %d", oracle.calls)
	}
}

func TestHandleTurnExecutorErrorRendered(t *testing.T) {
	store := newMemStore()
	executor := &recordingExecutor{result: catalog.Result{Err: "Order not found."}}
	oracle := &mockOracle{responses: []string{
		`{"intent": "query_data", "query_type": "order_status", "parameters": {"order_id": "99999"}}`,
	}}
	svc := NewService(store, executor, oracle)

	result, err := svc.HandleTurn(context.Background(), "u1", "status of order 99999?", "")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	want := "I encountered an issue retrieving that information: Order not found."
	if result.Reply != want {
		t.Fatalf("expected %q, got %q", want, result.Reply)
	}
	if oracle.calls != 1 {
		t.Fatalf("no synthesis call expected on executor error, got %d calls", oracle.calls)
	}
}

func TestHandleTurnOracleFailureApologizes(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{err: errors.New("timeout")})

	result, err := svc.HandleTurn(context.Background(), "u1", "hello", "")
	if err != nil {
		t.Fatalf("oracle failure must not fail the turn: %v", err)
	}
	if result.Reply != apologyReply {
		t.Fatalf("expected apology, got %q", result.Reply)
	}
	if len(result.History) != 2 {
		t.Fatalf("turn must still persist both messages, got %d", len(result.History))
	}
}

func TestHandleTurnMalformedOracleOutput(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{responses: []string{"not json at all"}})

	result, err := svc.HandleTurn(context.Background(), "u1", "hello", "")
	if err != nil {
		t.Fatalf("malformed output must not fail the turn: %v", err)
	}
	if result.Reply != fallbackReply {
		t.Fatalf("expected fallback reply, got %q", result.Reply)
	}
}

func TestPersistRetriesOnce(t *testing.T) {
	store := newMemStore()
	store.replaceErrs = []error{errors.New("transient write failure")}
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	if _, err := svc.HandleTurn(context.Background(), "u1", "hi", ""); err != nil {
		t.Fatalf("single write failure should be retried away: %v", err)
	}
	if store.replaceCalls != 2 {
		t.Fatalf("expected one retry, got %d write attempts", store.replaceCalls)
	}
}

func TestPersistFailsAfterRetry(t *testing.T) {
	store := newMemStore()
	store.replaceErrs = []error{errors.New("write failure"), errors.New("write failure")}
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	_, err := svc.HandleTurn(context.Background(), "u1", "hi", "")
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("expected ErrPersistFailed, got %v", err)
	}
}

func TestHandleTurnVanishedConversation(t *testing.T) {
	store := newMemStore()
	store.replaceErrs = []error{mongo.ErrNoDocuments}
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	_, err := svc.HandleTurn(context.Background(), "u1", "hi", "")
	if !errors.Is(err, ErrConversationVanished) {
		t.Fatalf("expected ErrConversationVanished, got %v", err)
	}
}

func TestConversationRoundTripOrdering(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &recordingExecutor{}, &mockOracle{})

	sessionID := ""
	const turns = 4
	for i := 0; i < turns; i++ {
		result, err := svc.HandleTurn(context.Background(), "u1", fmt.Sprintf("message %d", i), sessionID)
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
		if sessionID != "" && result.SessionID != sessionID {
			t.Fatalf("session changed mid-conversation: %s -> %s", sessionID, result.SessionID)
		}
		sessionID = result.SessionID
	}

	conv, err := store.FindByUserSession(context.Background(), "u1", sessionID)
	if err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if len(conv.Messages) != turns*2 {
		t.Fatalf("expected %d messages, got %d", turns*2, len(conv.Messages))
	}
	for i := 0; i < turns; i++ {
		user := conv.Messages[i*2]
		assistant := conv.Messages[i*2+1]
		if user.Role != models.RoleUser || user.Content != fmt.Sprintf("message %d", i) {
			t.Fatalf("turn %d user message out of order: %#v", i, user)
		}
		if assistant.Role != models.RoleAssistant {
			t.Fatalf("turn %d assistant message out of order: %#v", i, assistant)
		}
	}
}
