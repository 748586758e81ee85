package ai

import "context"

// Runtime is the single call the summary generator needs from a model
// backend: one chat request in, one completion out.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by summary_provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderNone       = "none"
)
