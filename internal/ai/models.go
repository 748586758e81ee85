package ai

import "sort"

// ModelInfo carries the context window and pricing used for prompt-size
// warnings and cost estimates. Prices are illustrative.
type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":        {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"openai/gpt-4.1-mini":       {Name: "openai/gpt-4.1-mini", ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016},
	"deepseek/deepseek-r1:free": {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"gpt-4o-mini":               {Name: "gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4.1-mini":              {Name: "gpt-4.1-mini", ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016},
	"llama3.1:8b":               {Name: "llama3.1:8b", ContextTokens: 8192},
	"mistral-nemo:latest":       {Name: "mistral-nemo:latest", ContextTokens: 8192},
	"phi3:mini-4k-instruct":     {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Models returns the known models sorted by name.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// DefaultModel is the summary model used when none is configured.
func DefaultModel(provider string) (string, bool) {
	switch provider {
	case ProviderOpenRouter, "":
		return "openai/gpt-4o-mini", true
	case ProviderOpenAI:
		return "gpt-4o-mini", true
	case ProviderOllama:
		return "llama3.1:8b", true
	}
	return "", false
}
