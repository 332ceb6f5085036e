package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haasonsaas/fairgame/internal/observability"
)

// Credentials holds what the provider clients need to authenticate.
type Credentials struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	MistralAPIKey   string
	GoogleAPIKey    string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string

	// Base URL overrides, mostly for proxies and tests.
	AnthropicBaseURL string
	OpenAIBaseURL    string
	MistralBaseURL   string
}

// Factory builds the backend of one provider.
type Factory func(ctx context.Context) (Backend, error)

// Option customises a Registry.
type Option func(*Registry)

// WithBackend serves provider with b instead of building a client.
func WithBackend(provider string, b Backend) Option {
	return func(r *Registry) {
		r.backends[provider] = b
	}
}

// WithFactory replaces how the backend of provider is built.
func WithFactory(provider string, f Factory) Option {
	return func(r *Registry) {
		r.factories[provider] = f
	}
}

// WithService registers an additional service identifier.
func WithService(s Service) Option {
	return func(r *Registry) {
		r.services[s.ID] = s
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func WithTracer(t *observability.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry resolves service identifiers to backends and completes prompts.
// Backends are built on first use and cached per provider. It is safe for
// concurrent use.
type Registry struct {
	services  map[string]Service
	factories map[string]Factory

	mu       sync.Mutex
	backends map[string]Backend

	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// NewRegistry returns a registry with the built-in services, building
// clients from creds.
func NewRegistry(creds Credentials, opts ...Option) *Registry {
	r := &Registry{
		services:  make(map[string]Service, len(defaultServices)),
		factories: defaultFactories(creds),
		backends:  make(map[string]Backend),
	}
	for _, s := range defaultServices {
		r.services[s.ID] = s
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = observability.NopLogger()
	}
	return r
}

func defaultFactories(creds Credentials) map[string]Factory {
	return map[string]Factory{
		ProviderAnthropic: func(context.Context) (Backend, error) {
			return NewAnthropicService(AnthropicConfig{APIKey: creds.AnthropicAPIKey, BaseURL: creds.AnthropicBaseURL})
		},
		ProviderOpenAI: func(context.Context) (Backend, error) {
			return NewOpenAIService(OpenAIConfig{
				Provider:    ProviderOpenAI,
				APIKey:      creds.OpenAIAPIKey,
				BaseURL:     creds.OpenAIBaseURL,
				Temperature: 1.0,
			})
		},
		ProviderMistral: func(context.Context) (Backend, error) {
			baseURL := creds.MistralBaseURL
			if baseURL == "" {
				baseURL = mistralBaseURL
			}
			return NewOpenAIService(OpenAIConfig{Provider: ProviderMistral, APIKey: creds.MistralAPIKey, BaseURL: baseURL})
		},
		ProviderGoogle: func(ctx context.Context) (Backend, error) {
			return NewGoogleService(ctx, GoogleConfig{APIKey: creds.GoogleAPIKey})
		},
		ProviderBedrock: func(ctx context.Context) (Backend, error) {
			return NewBedrockService(ctx, BedrockConfig{
				Region:          creds.AWSRegion,
				AccessKeyID:     creds.AWSAccessKeyID,
				SecretAccessKey: creds.AWSSecretAccessKey,
				SessionToken:    creds.AWSSessionToken,
			})
		},
	}
}

// Service returns the service registered under id.
func (r *Registry) Service(id string) (Service, error) {
	s, ok := r.services[id]
	if !ok {
		return Service{}, fmt.Errorf("%w: %q", ErrUnsupportedService, id)
	}
	return s, nil
}

// Complete sends prompt to the model behind serviceID.
func (r *Registry) Complete(ctx context.Context, serviceID, prompt string) (string, error) {
	svc, err := r.Service(serviceID)
	if err != nil {
		return "", err
	}
	backend, err := r.backend(ctx, svc.Provider)
	if err != nil {
		return "", err
	}

	ctx, span := r.tracer.Start(ctx, "providers.complete",
		"llm.service", svc.ID, "llm.provider", svc.Provider, "llm.model", svc.Model)
	defer span.End()

	start := time.Now()
	text, err := backend.Complete(ctx, svc.Model, prompt)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = string(ClassifyError(err))
		if pe, ok := GetProviderError(err); ok {
			status = string(pe.Reason)
		}
		observability.RecordError(span, err)
		r.logger.WarnContext(ctx, "completion failed",
			"service", svc.ID, "provider", svc.Provider, "model", svc.Model, "error", err)
	}
	r.metrics.RecordCompletion(svc.Provider, svc.Model, status, elapsed.Seconds())
	return text, err
}

func (r *Registry) backend(ctx context.Context, provider string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[provider]; ok {
		return b, nil
	}
	factory, ok := r.factories[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no client for provider %q", ErrUnsupportedService, provider)
	}
	b, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("build %s client: %w", provider, err)
	}
	r.backends[provider] = b
	r.logger.DebugContext(ctx, "provider client ready", "provider", provider)
	return b, nil
}
