package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"shopassist/internal/models"
	"shopassist/internal/service/chat"
)

// ChatService handles one chat turn.
type ChatService interface {
	HandleTurn(ctx context.Context, userID, message, sessionID string) (*chat.TurnResult, error)
}

// ConversationReader serves the read-only conversation endpoints.
type ConversationReader interface {
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Conversation, error)
}

// Handler wires HTTP routes to the chat service and the conversation
// store. Both dependencies may be nil when the store was unreachable at
// startup; every data endpoint then answers 503.
type Handler struct {
	svc    ChatService
	reader ConversationReader
}

// NewHandler constructs a Handler instance.
func NewHandler(svc ChatService, reader ConversationReader) *Handler {
	return &Handler{svc: svc, reader: reader}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.health)
	api := router.Group("/api")
	api.POST("/chat", h.postChat)
	api.GET("/conversations/:user_id", h.listConversations)
	api.GET("/conversation/:session_id", h.getConversation)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "E-commerce Chatbot Backend is running!"})
}

func (h *Handler) storeReady(c *gin.Context) bool {
	if h.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return false
	}
	return true
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID           string           `json:"session_id"`
	AssistantResponse   string           `json:"assistant_response"`
	ConversationHistory []models.Message `json:"conversation_history"`
}

func (h *Handler) postChat(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	if userID == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and message are required"})
		return
	}

	result, err := h.svc.HandleTurn(c.Request.Context(), userID, message, strings.TrimSpace(req.SessionID))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		case errors.Is(err, chat.ErrConversationVanished):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found for update"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save conversation history"})
		}
		return
	}
	c.JSON(http.StatusOK, chatResponse{
		SessionID:           result.SessionID,
		AssistantResponse:   result.Reply,
		ConversationHistory: result.History,
	})
}

func (h *Handler) listConversations(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	userID := c.Param("user_id")
	conversations, err := h.reader.ListConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	if conversations == nil {
		conversations = make([]models.Conversation, 0)
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *Handler) getConversation(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	sessionID := c.Param("session_id")
	conv, err := h.reader.FindBySession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation session '" + sessionID + "' not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	c.JSON(http.StatusOK, conv)
}
