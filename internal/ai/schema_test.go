package ai

import (
	"reflect"
	"testing"
)

type schemaProbe struct {
	Points []string `json:"summary_points" jsonschema:"minItems=1,maxItems=8"`
	Note   struct {
		Text string `json:"text"`
	} `json:"note"`
}

func TestSchemaForIsStrict(t *testing.T) {
	s, err := SchemaFor[schemaProbe]()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s["type"] != "object" || s["additionalProperties"] != false {
		t.Fatalf("root = %v", s)
	}
	if got := s["required"]; !reflect.DeepEqual(got, []string{"note", "summary_points"}) {
		t.Fatalf("required = %v", got)
	}
	props := s["properties"].(map[string]any)
	note := props["note"].(map[string]any)
	if note["additionalProperties"] != false {
		t.Fatalf("nested object not strict: %v", note)
	}
	points := props["summary_points"].(map[string]any)
	if points["type"] != "array" {
		t.Fatalf("points = %v", points)
	}
	if _, ok := s["$schema"]; ok {
		t.Fatal("$schema should be stripped")
	}
}

func TestDefaultModelAndCost(t *testing.T) {
	for _, p := range []string{ProviderOpenRouter, ProviderOpenAI, ProviderOllama} {
		m, ok := DefaultModel(p)
		if !ok {
			t.Fatalf("no default model for %s", p)
		}
		if _, known := LookupModel(m); !known {
			t.Fatalf("default model %s missing from catalog", m)
		}
	}
	if _, ok := DefaultModel(ProviderNone); ok {
		t.Fatal("none provider has no model")
	}
	cost, ok := EstimateCostUSD("gpt-4o-mini", 1000, 1000)
	if !ok || cost <= 0 {
		t.Fatalf("cost = %v %v", cost, ok)
	}
}

func TestNewRuntime(t *testing.T) {
	if _, err := NewRuntime("OpenRouter", RuntimeConfig{}); err != nil {
		t.Fatalf("openrouter: %v", err)
	}
	if _, err := NewRuntime("mystery", RuntimeConfig{}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
