package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaHost is the local Ollama address.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	retry      retryPolicy
}

// NewOllamaClient creates a new client targeting the given host.
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = DefaultOllamaHost
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		host:       strings.TrimRight(host, "/"),
		retry:      retryPolicy{Attempts: retryMax, Base: baseDelay, Max: maxDelay},
	}
}

// ollamaChatRequest is the non-streaming /api/chat body.
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   any            `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func newOllamaRequest(req GenerateRequest) ollamaChatRequest {
	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	if f := req.Format; f != nil {
		// Ollama accepts either "json" or a JSON schema object.
		if f.Schema != nil {
			oreq.Format = f.Schema
		} else {
			oreq.Format = "json"
		}
	}
	return oreq
}

// classifyOllamaError treats every 404 as a missing model; Ollama answers
// that way for a model that was never pulled.
func classifyOllamaError(e *APIError, hdr http.Header) error {
	if e.StatusCode == http.StatusNotFound {
		return &ModelNotFoundError{APIError: e}
	}
	return classifyAPIError(e, hdr)
}

// Generate sends a non-streaming chat request and maps the answer to GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(newOllamaRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var oresp ollamaChatResponse
	err = c.retry.run(ctx, func() error {
		oresp = ollamaChatResponse{}
		_, err := postJSON(ctx, c.httpClient, c.host+"/api/chat", nil, payload, &oresp, classifyOllamaError)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}},
		Usage: Usage{
			PromptTokens:     oresp.PromptEvalCount,
			CompletionTokens: oresp.EvalCount,
			TotalTokens:      oresp.PromptEvalCount + oresp.EvalCount,
		},
		RequestID: fmt.Sprintf("ollama_%d", time.Now().UnixNano()),
	}, nil
}
