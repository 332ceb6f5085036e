package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/providers"
)

// Runtime holds the settings read from the environment: provider
// credentials, decision retry knobs and output destinations.
type Runtime struct {
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	MistralAPIKey      string `env:"MISTRAL_API_KEY"`
	GoogleAPIKey       string `env:"GOOGLE_API_KEY"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`

	DecisionAttempts int           `env:"FAIRGAME_DECISION_ATTEMPTS" envDefault:"10"`
	DecisionDelay    time.Duration `env:"FAIRGAME_DECISION_DELAY" envDefault:"1s"`
	Parallelism      int           `env:"FAIRGAME_PARALLELISM" envDefault:"1"`
	TemplatesDir     string        `env:"FAIRGAME_TEMPLATES_DIR" envDefault:"resources/game_templates"`

	LogLevel     string `env:"FAIRGAME_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"FAIRGAME_LOG_FORMAT" envDefault:"json"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ResultsDSN string `env:"FAIRGAME_RESULTS_DSN"`
	S3Bucket   string `env:"FAIRGAME_S3_BUCKET"`
	S3Prefix   string `env:"FAIRGAME_S3_PREFIX" envDefault:"Fairgame_results"`
	S3Endpoint string `env:"FAIRGAME_S3_ENDPOINT"`
	HTTPAddr   string `env:"FAIRGAME_HTTP_ADDR" envDefault:":8080"`
}

// LoadRuntime parses Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	if rt.DecisionAttempts < 1 {
		return Runtime{}, fmt.Errorf("FAIRGAME_DECISION_ATTEMPTS must be positive, got %d", rt.DecisionAttempts)
	}
	if rt.DecisionDelay < 0 {
		return Runtime{}, fmt.Errorf("FAIRGAME_DECISION_DELAY must not be negative, got %s", rt.DecisionDelay)
	}
	if rt.Parallelism < 1 {
		rt.Parallelism = 1
	}
	return rt, nil
}

// Credentials returns the provider credentials in rt.
func (rt Runtime) Credentials() providers.Credentials {
	return providers.Credentials{
		AnthropicAPIKey:    rt.AnthropicAPIKey,
		OpenAIAPIKey:       rt.OpenAIAPIKey,
		MistralAPIKey:      rt.MistralAPIKey,
		GoogleAPIKey:       rt.GoogleAPIKey,
		AWSRegion:          rt.AWSRegion,
		AWSAccessKeyID:     rt.AWSAccessKeyID,
		AWSSecretAccessKey: rt.AWSSecretAccessKey,
		AWSSessionToken:    rt.AWSSessionToken,
	}
}

// LogConfig returns the logger settings in rt.
func (rt Runtime) LogConfig() observability.LogConfig {
	return observability.LogConfig{Level: rt.LogLevel, Format: rt.LogFormat}
}
