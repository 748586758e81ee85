package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from a model provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Raw        map[string]any
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: status=%d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", e.RequestID)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%s", e.Message)
	}
	return b.String()
}

// AuthError: the provider rejected the API key (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return "summary provider rejected the credentials (check api_key): " + e.APIError.Error()
}
func (e *AuthError) Unwrap() error { return e.APIError }

// RateLimitError is a 429; RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry in %s: %s", e.RetryAfter.Round(time.Second), e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}
func (e *RateLimitError) Unwrap() error { return e.APIError }

// ModelNotFoundError: the summary model is unknown to the provider or not pulled locally.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return "summary model not available (check summary_model): " + e.APIError.Error()
}
func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

// BadRequestError: the provider refused the request shape, e.g. an unsupported response format.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return "request rejected: " + e.APIError.Error() }
func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError signals billing or credit exhaustion.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return "quota exceeded: " + e.APIError.Error() }
func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is a provider-side 5xx.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return "provider error: " + e.APIError.Error() }
func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP answer arrived at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}
func (e *UnreachableError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed: rate limits,
// provider 5xx and transient network failures.
func Retryable(err error) bool {
	var (
		rl *RateLimitError
		se *ServerError
		ue *UnreachableError
	)
	switch {
	case errors.As(err, &rl), errors.As(err, &se):
		return true
	case errors.As(err, &ue):
		return transientNetErr(ue.Err)
	}
	return false
}

func transientNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// readAPIError decodes an OpenAI-style error body. It also accepts the flat
// {"error": "..."} shape used by Ollama and some gateways.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	e := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp.Header)}
	fields := raw
	switch v := raw["error"].(type) {
	case map[string]any:
		fields = v
	case string:
		e.Message = v
	}
	if msg, ok := fields["message"].(string); ok && e.Message == "" {
		e.Message = msg
	}
	if code, ok := fields["code"].(string); ok {
		e.Code = code
	}
	if e.Message == "" && len(raw) == 0 {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// classifyAPIError wraps e in the typed error matching its status and message.
func classifyAPIError(e *APIError, hdr http.Header) error {
	msg := strings.ToLower(e.Message)
	switch sc := e.StatusCode; {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: e}
	case sc == http.StatusTooManyRequests:
		if e.Code == "quota_exceeded" || mentionsAny(msg, "quota", "billing", "credits") {
			return &QuotaExceededError{APIError: e}
		}
		return &RateLimitError{APIError: e, RetryAfter: retryAfter(hdr)}
	case sc == http.StatusNotFound:
		if e.Code == "model_not_found" || mentionsAll(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: e}
		}
		return e
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: e}
	case sc == http.StatusPaymentRequired || e.Code == "quota_exceeded" || mentionsAny(msg, "quota", "billing", "limit exceeded"):
		return &QuotaExceededError{APIError: e}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: e}
	}
	return e
}

// retryAfter reads Retry-After as seconds or an HTTP date; zero when absent or invalid.
func retryAfter(hdr http.Header) time.Duration {
	v := strings.TrimSpace(hdr.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func mentionsAll(s string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return s != ""
}

func mentionsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(hdr http.Header) string {
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := hdr.Get(k); v != "" {
			return v
		}
	}
	return ""
}
