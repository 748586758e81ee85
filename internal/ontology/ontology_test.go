package ontology

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLoads(t *testing.T) {
	o, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(o.Rules) == 0 || len(o.Keywords) == 0 || len(o.Dishes()) == 0 {
		t.Fatalf("expected non-empty tables: rules=%d keywords=%d dishes=%d", len(o.Rules), len(o.Keywords), len(o.Dishes()))
	}
	if o.Rules[0].Domain != "FOOD_PROBLEM" {
		t.Fatalf("rule order not preserved: first=%s", o.Rules[0].Domain)
	}
	if got := o.RuleTheme("FOOD_PROBLEM"); got != "food" {
		t.Fatalf("RuleTheme = %q", got)
	}
	if o.FoodProblemDomain != DefaultFoodProblemDomain {
		t.Fatalf("FoodProblemDomain = %q", o.FoodProblemDomain)
	}
}

func TestSynonymResolve(t *testing.T) {
	o := MustDefault()
	cases := map[string]string{
		"name":          FieldReviewerName,
		"stars":         FieldRatingOverall,
		"restaurant":    FieldRestaurantName,
		"posted_on":     FieldCreatedAt,
		"helpful_votes": FieldLikeCount,
		"state":         FieldCity,
		"category":      FieldPrimaryCuisine,
		"feedback":      FieldReviewText,
	}
	for in, want := range cases {
		got, ok := o.Synonyms.Resolve(in)
		if !ok || got != want {
			t.Errorf("Resolve(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := o.Synonyms.Resolve("favourite_colour"); ok {
		t.Fatalf("expected unmatched column to resolve to nothing")
	}
}

func TestNormalizeColumnName(t *testing.T) {
	cases := map[string]string{
		"  Review Date ": "review_date",
		"Rating (1-5)":   "rating_1_5",
		"__Likes__":      "likes",
		"Created-At":     "created_at",
	}
	for in, want := range cases {
		if got := NormalizeColumnName(in); got != want {
			t.Errorf("NormalizeColumnName(%q) = %q want %q", in, got, want)
		}
	}
}

func TestConceptsCanonical(t *testing.T) {
	o := MustDefault()
	if got := o.Concepts.Canonical("Too Salty"); got != "taste_balance" {
		t.Fatalf("Canonical = %q", got)
	}
	if got := o.Concepts.Canonical("weird"); got != OtherConcept {
		t.Fatalf("Canonical = %q", got)
	}
}

func TestLoadOverridesFromDir(t *testing.T) {
	dir := t.TempDir()
	rules := "SERVICE_PROBLEM:\n  - rude\nFOOD_PROBLEM:\n  - cold\n"
	if err := os.WriteFile(filepath.Join(dir, RuleKeywordsFile), []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(o.Rules) != 2 || o.Rules[0].Domain != "SERVICE_PROBLEM" {
		t.Fatalf("override not applied: %+v", o.Rules)
	}
	if len(o.Keywords) == 0 {
		t.Fatalf("non-overridden tables should fall back to defaults")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := Dump(dir); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	for _, name := range AssetFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := Load(dir); err != nil {
		t.Fatalf("Load dumped: %v", err)
	}
}
