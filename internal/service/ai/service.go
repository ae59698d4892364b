package ai

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"shopassist/internal/config"
)

// DefaultTimeout bounds a single oracle call when no timeout is
// configured.
const DefaultTimeout = 30 * time.Second

const claudeMaxTokens = 3000

// Service wraps one configured chat-model provider behind a plain
// messages-in/text-out call. The provider output is treated as untrusted;
// callers are responsible for parsing it defensively.
type Service struct {
	aiModel model.ToolCallingChatModel
	timeout time.Duration
}

// NewService builds the chat model for the configured provider. An empty
// modelType falls back to the provider's configured default, an empty
// api_key falls back to the <PROVIDER>_API_KEY environment variable.
func NewService(cfg *config.Config, provider, modelType string) (*Service, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	if modelType == "" {
		modelType = provCfg.Model
	}
	apiKey := provCfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(strings.ToUpper(provider) + "_API_KEY")
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelType,
			APIKey:  apiKey,
		})
	case "gemini":
		client, cerr := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: apiKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  modelType,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    apiKey,
			Model:     modelType,
			BaseURL:   baseURLPtr,
			MaxTokens: claudeMaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	timeout := time.Duration(cfg.BasicConfig.OracleTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{aiModel: chatModel, timeout: timeout}, nil
}

// Generate runs one model call with a bounded timeout and a single retry
// for transient failures.
func (s *Service) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		out, err := s.aiModel.Generate(callCtx, messages)
		cancel()
		if err == nil {
			return out.Content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Printf("oracle call failed (attempt %d): %v", attempt+1, err)
	}
	return "", fmt.Errorf("generate: %w", lastErr)
}
