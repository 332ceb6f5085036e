package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailoverReason categorizes why a provider request failed.
type FailoverReason string

const (
	FailoverBilling          FailoverReason = "billing"
	FailoverRateLimit        FailoverReason = "rate_limit"
	FailoverAuth             FailoverReason = "auth"
	FailoverTimeout          FailoverReason = "timeout"
	FailoverServerError      FailoverReason = "server_error"
	FailoverInvalidRequest   FailoverReason = "invalid_request"
	FailoverModelUnavailable FailoverReason = "model_unavailable"
	FailoverContentFilter    FailoverReason = "content_filter"
	FailoverUnknown          FailoverReason = "unknown"
)

// IsRetryable reports whether asking again may succeed.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case FailoverRateLimit, FailoverTimeout, FailoverServerError:
		return true
	default:
		return false
	}
}

// ProviderError is a classified failure from a completion backend.
type ProviderError struct {
	Reason   FailoverReason
	Provider string
	Model    string
	// Status is the HTTP status code when one is known.
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Reason)}
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Code != "" {
		parts = append(parts, "code="+e.Code)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError wraps cause and classifies it from its message.
func NewProviderError(provider, model string, cause error) *ProviderError {
	err := &ProviderError{
		Provider: provider,
		Model:    model,
		Cause:    cause,
		Reason:   FailoverUnknown,
	}
	if cause != nil {
		err.Message = cause.Error()
		err.Reason = ClassifyError(cause)
	}
	return err
}

// WithStatus records the HTTP status and reclassifies from it.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	if reason := classifyStatusCode(status); reason != FailoverUnknown {
		e.Reason = reason
	}
	return e
}

// WithCode records a provider error code and reclassifies from it when the code is known.
func (e *ProviderError) WithCode(code string) *ProviderError {
	e.Code = code
	if reason := classifyErrorCode(code); reason != FailoverUnknown {
		e.Reason = reason
	}
	return e
}

// ClassifyError maps an error message to a FailoverReason.
func ClassifyError(err error) FailoverReason {
	if err == nil {
		return FailoverUnknown
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "timeout", "deadline exceeded", "etimedout"):
		return FailoverTimeout
	case containsAny(msg, "rate limit", "rate_limit", "too many requests", "throttl", "429"):
		return FailoverRateLimit
	case containsAny(msg, "unauthorized", "invalid api key", "invalid_api_key", "authentication", "401", "403"):
		return FailoverAuth
	case containsAny(msg, "billing", "payment", "quota", "insufficient", "402"):
		return FailoverBilling
	case containsAny(msg, "content_filter", "content policy", "safety", "blocked"):
		return FailoverContentFilter
	case containsAny(msg, "model not found", "model_not_found", "does not exist", "unavailable"):
		return FailoverModelUnavailable
	case containsAny(msg, "internal server", "server error", "500", "502", "503", "504"):
		return FailoverServerError
	default:
		return FailoverUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func classifyStatusCode(status int) FailoverReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailoverAuth
	case status == http.StatusPaymentRequired:
		return FailoverBilling
	case status == http.StatusTooManyRequests:
		return FailoverRateLimit
	case status == http.StatusBadRequest:
		return FailoverInvalidRequest
	case status == http.StatusNotFound:
		return FailoverModelUnavailable
	case status >= 500:
		return FailoverServerError
	default:
		return FailoverUnknown
	}
}

func classifyErrorCode(code string) FailoverReason {
	switch strings.ToLower(code) {
	case "rate_limit_error", "rate_limit_exceeded", "throttlingexception", "toomanyrequestsexception":
		return FailoverRateLimit
	case "authentication_error", "invalid_api_key", "accessdeniedexception", "unrecognizedclientexception":
		return FailoverAuth
	case "billing_error", "insufficient_quota":
		return FailoverBilling
	case "model_not_found", "model_not_available", "resourcenotfoundexception", "modelnotreadyexception":
		return FailoverModelUnavailable
	case "content_policy_violation", "content_filter":
		return FailoverContentFilter
	case "server_error", "internal_error", "internalserverexception", "serviceunavailableexception", "overloaded_error":
		return FailoverServerError
	case "invalid_request_error", "validationexception":
		return FailoverInvalidRequest
	default:
		return FailoverUnknown
	}
}

// GetProviderError extracts a ProviderError from an error chain.
func GetProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if providerErr, ok := GetProviderError(err); ok {
		return providerErr.Reason.IsRetryable()
	}
	return ClassifyError(err).IsRetryable()
}
