package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenRouter chat completions root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Client talks to any OpenAI-compatible chat completions endpoint.
// It defaults to OpenRouter.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      retryPolicy
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OutputSchema asks a runtime for structured JSON output.
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

type GenerateRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// Format requests JSON output; nil means free text.
	Format *OutputSchema
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the first choice's content.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

func newChatRequest(req GenerateRequest) chatRequest {
	cr := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if f := req.Format; f != nil {
		if f.Schema == nil {
			cr.ResponseFormat = &responseFormat{Type: "json_object"}
		} else {
			cr.ResponseFormat = &responseFormat{
				Type:       "json_schema",
				JSONSchema: &jsonSchema{Name: f.Name, Strict: true, Schema: f.Schema},
			}
		}
	}
	return cr
}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		retry:      retryPolicy{Attempts: retryMax, Base: baseDelay, Max: maxDelay},
	}
}

// NewClientWithBaseURL targets another OpenAI-compatible endpoint.
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

func validateRequest(req GenerateRequest) error {
	if req.Model == "" {
		return errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	return nil
}

// Generate posts one chat completion, retrying rate limits, 5xx answers and
// transient network failures per the client's retry policy.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("api key is missing (set REVIEWLOOM_API_KEY)")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(newChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("HTTP-Referer", "https://github.com/KaramelBytes/reviewloom-cli")
	header.Set("X-Title", "ReviewLoom CLI")

	var out GenerateResponse
	err = c.retry.run(ctx, func() error {
		out = GenerateResponse{}
		hdr, err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", header, payload, &out, classifyAPIError)
		if err == nil {
			out.RequestID = extractRequestID(hdr)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
