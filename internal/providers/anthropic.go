package providers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicConfig configures AnthropicService.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	// MaxTokens defaults to 1024.
	MaxTokens int64
}

// AnthropicService completes prompts with the Anthropic Messages API.
type AnthropicService struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicService returns a service for cfg. The SDK's own retries are
// disabled; decision retries happen in the game round.
func NewAnthropicService(cfg AnthropicConfig) (*AnthropicService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = anthropicMaxTokens
	}
	return &AnthropicService{client: anthropic.NewClient(opts...), maxTokens: cfg.MaxTokens}, nil
}

// Complete sends prompt as a single user message and joins the text blocks of the reply.
func (s *AnthropicService) Complete(ctx context.Context, model, prompt string) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", wrapAnthropicError(err, model)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

type anthropicErrorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func wrapAnthropicError(err error, model string) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return NewProviderError(ProviderAnthropic, model, err)
	}

	providerErr := (&ProviderError{
		Provider: ProviderAnthropic,
		Model:    model,
		Cause:    err,
		Reason:   FailoverUnknown,
	}).WithStatus(apiErr.StatusCode)

	var payload anthropicErrorPayload
	if raw := apiErr.RawJSON(); raw != "" && json.Unmarshal([]byte(raw), &payload) == nil {
		providerErr.Message = payload.Error.Message
		if payload.Error.Type != "" {
			providerErr = providerErr.WithCode(payload.Error.Type)
		}
	}
	return providerErr
}
