package verbatim

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
)

// ErrNoClassifiedReviews means no review hit any tier-1 domain keyword,
// which points at a broken or mismatched keyword table.
var ErrNoClassifiedReviews = errors.New("no review matched any domain keyword")

// FoodTheme is the theme tiers 2 and 3 analyse.
const FoodTheme = "food"

// Tier2Subthemes are the food quality dimensions counted by tier 2.
var Tier2Subthemes = map[string]bool{
	"texture":            true,
	"freshness":          true,
	"temperature":        true,
	"spice_level":        true,
	"salt_sweet_balance": true,
	"portion_size":       true,
}

// Report is the three-tier verbatim analysis.
type Report struct {
	Tier1 Tier1 `json:"tier_1"`
	Tier2 Tier2 `json:"tier_2"`
	Tier3 Tier3 `json:"tier_3"`
}

// Analyze classifies reviews by domain (tier 1), profiles negative food
// quality rows (tier 2) and attributes low-rated food complaints to phrases
// and dishes (tier 3).
func Analyze(t *review.Table, rows []theme.Row, o *ontology.Ontology) (*Report, error) {
	if o == nil {
		return nil, fmt.Errorf("verbatim: nil ontology")
	}
	t1, err := ClassifyDomains(t, o.Rules)
	if err != nil {
		return nil, err
	}
	t2 := FoodQuality(rows, t1.DomainReviews(o.FoodProblemDomain))
	t3 := RootCauses(t, rows, o.Dishes(), o.Concepts)
	return &Report{Tier1: *t1, Tier2: t2, Tier3: t3}, nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
