package verbatim

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// Classification is the tier-1 domain assigned to one review.
type Classification struct {
	ReviewID      int     `json:"review_id"`
	Domain        string  `json:"domain"`
	Confidence    float64 `json:"confidence"`
	MatchedAnchor string  `json:"matched_anchor"`
}

// DomainShare is one entry of the tier-1 distribution.
type DomainShare struct {
	Domain     string  `json:"domain"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Tier1 is the domain distribution over classified reviews.
type Tier1 struct {
	TotalValidReviews int              `json:"total_valid_reviews"`
	Distribution      []DomainShare    `json:"issue_distribution"`
	Classifications   []Classification `json:"-"`
}

// Classify assigns text to the domain with the most keyword hits. The first
// domain in rule order wins ties; ok is false when nothing matched.
func Classify(text string, rules []ontology.DomainRule) (c Classification, ok bool) {
	text = strings.ToLower(text)
	best, bestHits := -1, 0
	for i, r := range rules {
		hits := 0
		for _, kw := range r.Keywords {
			if kw == "" || !strings.Contains(text, kw) {
				continue
			}
			hits++
			if c.MatchedAnchor == "" {
				c.MatchedAnchor = kw
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best < 0 {
		return Classification{}, false
	}
	c.Domain = rules[best].Domain
	c.Confidence = stats.Round(math.Min(1, float64(bestHits)/3), 2)
	return c, true
}

// ClassifyDomains runs Classify over every review. It fails with
// ErrNoClassifiedReviews when no review matches.
func ClassifyDomains(t *review.Table, rules []ontology.DomainRule) (*Tier1, error) {
	out := &Tier1{Distribution: []DomainShare{}}
	counts := map[string]int{}
	var order []string
	for i, r := range t.Reviews {
		c, ok := Classify(r.ReviewText, rules)
		if !ok {
			continue
		}
		c.ReviewID = i
		out.Classifications = append(out.Classifications, c)
		if _, seen := counts[c.Domain]; !seen {
			order = append(order, c.Domain)
		}
		counts[c.Domain]++
	}
	if len(out.Classifications) == 0 {
		return nil, ErrNoClassifiedReviews
	}
	out.TotalValidReviews = len(out.Classifications)
	for _, d := range order {
		out.Distribution = append(out.Distribution, DomainShare{
			Domain:     d,
			Count:      counts[d],
			Percentage: stats.Round(percent(counts[d], out.TotalValidReviews), 2),
		})
	}
	sort.SliceStable(out.Distribution, func(i, j int) bool {
		return out.Distribution[i].Count > out.Distribution[j].Count
	})
	return out, nil
}

// DomainReviews returns the ids of reviews classified as domain.
func (t *Tier1) DomainReviews(domain string) map[int]bool {
	ids := map[int]bool{}
	for _, c := range t.Classifications {
		if c.Domain == domain {
			ids[c.ReviewID] = true
		}
	}
	return ids
}
