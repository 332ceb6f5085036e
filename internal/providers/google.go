package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GoogleConfig configures GoogleService.
type GoogleConfig struct {
	APIKey string
	// Temperature is sent when non-zero.
	Temperature float32
}

// GoogleService completes prompts with the Gemini API.
type GoogleService struct {
	client      *genai.Client
	temperature float32
}

// NewGoogleService returns a Gemini service for cfg.
func NewGoogleService(ctx context.Context, cfg GoogleConfig) (*GoogleService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, NewProviderError(ProviderGoogle, "", err)
	}
	return &GoogleService{client: client, temperature: cfg.Temperature}, nil
}

// Complete sends prompt as user text and returns the concatenated text parts.
func (s *GoogleService) Complete(ctx context.Context, model, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if s.temperature != 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(s.temperature)}
	}
	resp, err := s.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", wrapGoogleError(err, model)
	}
	return resp.Text(), nil
}

func wrapGoogleError(err error, model string) error {
	providerErr := NewProviderError(ProviderGoogle, model, err)

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthenticated"):
		providerErr = providerErr.WithStatus(http.StatusUnauthorized)
	case strings.Contains(msg, "403") || strings.Contains(msg, "permission denied"):
		providerErr = providerErr.WithStatus(http.StatusForbidden)
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		providerErr = providerErr.WithStatus(http.StatusNotFound)
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted"):
		providerErr = providerErr.WithStatus(http.StatusTooManyRequests)
	case strings.Contains(msg, "503"):
		providerErr = providerErr.WithStatus(http.StatusServiceUnavailable)
	case strings.Contains(msg, "500"):
		providerErr = providerErr.WithStatus(http.StatusInternalServerError)
	}
	return providerErr
}
