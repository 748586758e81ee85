package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIRuntime calls the OpenAI Responses API through the official SDK.
// Structured output uses a strict JSON schema.
type OpenAIRuntime struct {
	client openai.Client
	hasKey bool
}

// NewOpenAIRuntime builds a runtime; an empty baseURL targets api.openai.com.
func NewOpenAIRuntime(apiKey, baseURL string, timeout time.Duration, retryMax int) *OpenAIRuntime {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(retryMax),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &OpenAIRuntime{client: openai.NewClient(opts...), hasKey: apiKey != ""}
}

func (r *OpenAIRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if !r.hasKey {
		return nil, errors.New("api key is missing (set REVIEWLOOM_API_KEY)")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems(req.Messages),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if f := req.Format; f != nil && f.Schema != nil {
		format := &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:   f.Name,
			Schema: f.Schema,
			Strict: openai.Bool(true),
			Type:   "json_schema",
		}
		if f.Description != "" {
			format.Description = openai.String(f.Description)
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{OfJSONSchema: format},
		}
	}

	resp, err := r.client.Responses.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &GenerateResponse{
		ID:      resp.ID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: resp.OutputText()}}},
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		RequestID: resp.ID,
	}, nil
}

func inputItems(msgs []Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(msgs))
	for _, m := range msgs {
		role := responses.EasyInputMessageRoleUser
		switch m.Role {
		case "system":
			role = responses.EasyInputMessageRoleSystem
		case "developer":
			role = responses.EasyInputMessageRoleDeveloper
		case "assistant":
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, role))
	}
	return items
}

// mapOpenAIError converts SDK errors into this package's typed errors.
func mapOpenAIError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return fmt.Errorf("openai request: %w", err)
	}
	apiErr := &APIError{
		StatusCode: apierr.StatusCode,
		Code:       apierr.Code,
		Message:    apierr.Message,
	}
	if apierr.Response != nil {
		apiErr.RequestID = extractRequestID(apierr.Response.Header)
		return classifyAPIError(apiErr, apierr.Response.Header)
	}
	return classifyAPIError(apiErr, nil)
}
