package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

const responsesBody = `{
  "id": "resp_123",
  "object": "response",
  "created_at": 1700000000,
  "status": "completed",
  "model": "gpt-4o-mini",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "status": "completed",
    "role": "assistant",
    "content": [{"type": "output_text", "text": "{\"summary_points\":[\"ok\"]}", "annotations": []}]
  }],
  "usage": {"input_tokens": 7, "output_tokens": 3, "total_tokens": 10}
}`

func TestOpenAIRuntimeStructuredOutput(t *testing.T) {
	var body string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/responses" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, responsesBody)
	}))
	defer srv.Close()

	rt := NewOpenAIRuntime("test", srv.URL+"/v1", 2*time.Second, 0)
	resp, err := rt.Generate(context.Background(), GenerateRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Format:   &OutputSchema{Name: "Summary", Schema: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != `{"summary_points":["ok"]}` || resp.Usage.TotalTokens != 10 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.Contains(body, `"json_schema"`) || !strings.Contains(body, `"Summary"`) {
		t.Fatalf("request body lacks schema format: %s", body)
	}
}

func TestOpenAIRuntimeMapsErrors(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key", "code": "invalid_api_key"}})
	}))
	defer srv.Close()

	rt := NewOpenAIRuntime("test", srv.URL, 2*time.Second, 0)
	_, err := rt.Generate(context.Background(), GenerateRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: "user", Content: "hi"}}})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestOpenAIRuntimeRequiresKey(t *testing.T) {
	rt := NewOpenAIRuntime("", "", time.Second, 0)
	if _, err := rt.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}}); err == nil {
		t.Fatal("expected missing key error")
	}
}
