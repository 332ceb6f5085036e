// Package providers answers game prompts through hosted language models.
//
// Games refer to decision services by abstract identifiers such as
// "OpenAIGPT4o". The Registry maps each identifier to a provider and model,
// builds the provider client on first use and forwards the prompt as a
// single user message.
package providers

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMistral   = "mistral"
	ProviderGoogle    = "google"
	ProviderBedrock   = "bedrock"
)

// ErrUnsupportedService is returned for an unknown service identifier.
var ErrUnsupportedService = errors.New("unsupported llm service")

// Backend completes a prompt with a given model.
type Backend interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Service binds a service identifier to a provider model.
type Service struct {
	ID       string
	Provider string
	Model    string
}

var defaultServices = []Service{
	{ID: "Claude35Sonnet", Provider: ProviderAnthropic, Model: "claude-3-5-sonnet-20241022"},
	{ID: "MistralLarge", Provider: ProviderMistral, Model: "mistral-large-latest"},
	{ID: "OpenAIGPT4o", Provider: ProviderOpenAI, Model: "gpt-4o"},
	{ID: "Gemini20Flash", Provider: ProviderGoogle, Model: "gemini-2.0-flash"},
	{ID: "BedrockClaude3Sonnet", Provider: ProviderBedrock, Model: "anthropic.claude-3-sonnet-20240229-v1:0"},
}

// Lookup returns the built-in service registered under id.
func Lookup(id string) (Service, error) {
	for _, s := range defaultServices {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("%w: %q", ErrUnsupportedService, id)
}

// ServiceIDs lists the built-in service identifiers, sorted.
func ServiceIDs() []string {
	ids := make([]string, 0, len(defaultServices))
	for _, s := range defaultServices {
		ids = append(ids, s.ID)
	}
	slices.Sort(ids)
	return ids
}
