package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const mistralBaseURL = "https://api.mistral.ai/v1"

// OpenAIConfig configures OpenAIService.
type OpenAIConfig struct {
	// Provider labels errors and metrics. Defaults to "openai".
	Provider string
	APIKey   string
	BaseURL  string
	// Temperature is sent when non-zero.
	Temperature float32
}

// OpenAIService completes prompts through an OpenAI compatible chat API.
// Mistral is served by the same client pointed at its own base URL.
type OpenAIService struct {
	provider    string
	client      *openai.Client
	temperature float32
}

// NewOpenAIService returns a chat completion service for cfg.
func NewOpenAIService(cfg OpenAIConfig) (*OpenAIService, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Provider)
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIService{
		provider:    cfg.Provider,
		client:      openai.NewClientWithConfig(clientConfig),
		temperature: cfg.Temperature,
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice.
func (s *OpenAIService) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", s.wrapError(err, model)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{
			Reason:   FailoverServerError,
			Provider: s.provider,
			Model:    model,
			Message:  "response has no choices",
		}
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) wrapError(err error, model string) error {
	providerErr := NewProviderError(s.provider, model, err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		providerErr.Message = apiErr.Message
		providerErr = providerErr.WithStatus(apiErr.HTTPStatusCode)
		if code, ok := apiErr.Code.(string); ok && code != "" {
			providerErr = providerErr.WithCode(code)
		} else if apiErr.Type != "" {
			providerErr = providerErr.WithCode(apiErr.Type)
		}
		return providerErr
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		providerErr = providerErr.WithStatus(reqErr.HTTPStatusCode)
	}
	return providerErr
}
