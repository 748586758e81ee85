package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig holds the knobs every summary runtime understands.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenRouter and OpenAI
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider if registered.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if f, ok := registry[strings.ToLower(name)]; ok {
		return f(cfg), true
	}
	return nil, false
}

// NewRuntime is GetRuntime with an error naming the known providers.
func NewRuntime(name string, cfg RuntimeConfig) (Runtime, error) {
	if rt, ok := GetRuntime(name, cfg); ok {
		return rt, nil
	}
	known := make([]string, 0, len(registry))
	for k := range registry {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("unknown summary provider %q (known: %s)", name, strings.Join(known, ", "))
}

// withDefaults fills zero knobs. Local runtimes retry less and sooner.
func (c RuntimeConfig) withDefaults(local bool) RuntimeConfig {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	retries, base, ceiling := 3, 500*time.Millisecond, 4*time.Second
	if local {
		retries, base, ceiling = 2, 200*time.Millisecond, time.Second
	}
	if c.RetryMax <= 0 {
		c.RetryMax = retries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = base
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = ceiling
	}
	return c
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) Runtime {
		c = c.withDefaults(false)
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay, c.BaseURL)
	})
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Runtime {
		// The SDK owns its backoff; only the attempt count carries over.
		c = c.withDefaults(false)
		return NewOpenAIRuntime(c.APIKey, c.BaseURL, c.HTTPTimeout, c.RetryMax)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		c = c.withDefaults(true)
		return NewOllamaClient(c.Host, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
}
