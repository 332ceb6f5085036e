package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is json or text. Defaults to json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource includes file and line in records.
	AddSource bool
	// RedactPatterns extend DefaultRedactPatterns.
	RedactPatterns []string
}

// ContextKey is the type of context keys read by the log handler.
type ContextKey string

const (
	// RunIDKey identifies one configuration run, which may hold many games.
	RunIDKey ContextKey = "run_id"
	// GameIDKey identifies one game inside a run.
	GameIDKey ContextKey = "game_id"
)

var contextKeys = []ContextKey{RunIDKey, GameIDKey}

// DefaultRedactPatterns match provider credentials and generic secrets.
var DefaultRedactPatterns = []string{
	`(?i)(api[_-]?key|apikey)[\s:=]+["\']?([a-zA-Z0-9_\-]{16,})["\']?`,
	`(?i)(bearer|token)[\s:]+([a-zA-Z0-9_\-\.]{16,})`,
	`(?i)(secret|password|passwd|pwd)[\s:=]+["\']?([^\s"']{8,})["\']?`,
	`sk-ant-[a-zA-Z0-9_-]{20,}`,
	`sk-[a-zA-Z0-9_-]{32,}`,
	`AIza[0-9A-Za-z_\-]{35}`,
	`AKIA[0-9A-Z]{16}`,
}

var sensitiveKeys = map[string]bool{
	"password":          true,
	"secret":            true,
	"token":             true,
	"api_key":           true,
	"apikey":            true,
	"authorization":     true,
	"secret_access_key": true,
}

// NewLogger returns a slog.Logger whose handler redacts secrets and adds
// run_id and game_id from the context of every record.
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     LogLevelFromString(config.Level),
		AddSource: config.AddSource,
	}

	var inner slog.Handler
	if strings.EqualFold(config.Format, "text") {
		inner = slog.NewTextHandler(config.Output, opts)
	} else {
		inner = slog.NewJSONHandler(config.Output, opts)
	}

	patterns := append(append([]string{}, DefaultRedactPatterns...), config.RedactPatterns...)
	redacts := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			redacts = append(redacts, re)
		}
	}

	return slog.New(&redactingHandler{inner: inner, redacts: redacts})
}

// NopLogger discards everything.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type redactingHandler struct {
	inner   slog.Handler
	redacts []*regexp.Regexp
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactString(r.Message), r.PC)
	if ctx != nil {
		for _, key := range contextKeys {
			if v, ok := ctx.Value(key).(string); ok && v != "" {
				out.AddAttrs(slog.String(string(key), v))
			}
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted), redacts: h.redacts}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redacts: h.redacts}
}

func (h *redactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if sensitiveKeys[strings.ToLower(strings.ReplaceAll(a.Key, "-", "_"))] {
		return slog.String(a.Key, "[REDACTED]")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactString(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.redactString(err.Error()))
		}
	}
	return a
}

func (h *redactingHandler) redactString(s string) string {
	for _, re := range h.redacts {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// WithRunID stores a run identifier in ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithGameID stores a game identifier in ctx.
func WithGameID(ctx context.Context, gameID string) context.Context {
	return context.WithValue(ctx, GameIDKey, gameID)
}

// RunID returns the run identifier stored in ctx.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(RunIDKey).(string)
	return id
}

// GameID returns the game identifier stored in ctx.
func GameID(ctx context.Context) string {
	id, _ := ctx.Value(GameIDKey).(string)
	return id
}

// LogLevelFromString converts a level name to a slog.Level, defaulting to info.
func LogLevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
