package ontology

import (
	"regexp"
	"strings"
)

// Canonical field names of a normalized review.
const (
	FieldCreatedAt      = "created_at"
	FieldReviewerName   = "reviewer_name"
	FieldReviewText     = "review_text"
	FieldRatingOverall  = "rating_overall"
	FieldLikeCount      = "like_count"
	FieldRestaurantName = "restaurant_name"
	FieldCity           = "city"
	FieldPrimaryCuisine = "primary_cuisine"
)

// CanonicalFields lists the required fields in schema order.
var CanonicalFields = []string{
	FieldCreatedAt, FieldReviewerName, FieldReviewText, FieldRatingOverall,
	FieldLikeCount, FieldRestaurantName, FieldCity, FieldPrimaryCuisine,
}

// Synonyms maps normalized column names to canonical fields.
type Synonyms struct {
	fields []NamedList
	index  map[string]string
}

// NewSynonyms builds a resolver; a name listed under several fields resolves
// to the first one.
func NewSynonyms(fields []NamedList) *Synonyms {
	s := &Synonyms{fields: fields, index: map[string]string{}}
	for _, f := range fields {
		for _, name := range f.Items {
			if _, seen := s.index[name]; !seen {
				s.index[name] = f.Name
			}
		}
	}
	return s
}

// Resolve returns the canonical field for a normalized column name.
func (s *Synonyms) Resolve(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	f, ok := s.index[name]
	return f, ok
}

// Fields returns the canonical fields known to the resolver, in table order.
func (s *Synonyms) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f.Name)
	}
	return out
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// NormalizeColumnName trims, lowercases, and collapses non-word runs to "_".
func NormalizeColumnName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWord.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Concepts maps a failure phrase to its canonical concept.
type Concepts struct {
	index map[string]string
}

// OtherConcept labels phrases with no canonical concept.
const OtherConcept = "other"

// NewConcepts builds a phrase lookup from concept -> phrases lists.
func NewConcepts(lists []NamedList) *Concepts {
	c := &Concepts{index: map[string]string{}}
	for _, l := range lists {
		for _, p := range l.Items {
			p = strings.ToLower(strings.TrimSpace(p))
			if _, seen := c.index[p]; !seen {
				c.index[p] = l.Name
			}
		}
	}
	return c
}

// Canonical returns the concept for phrase, or OtherConcept.
func (c *Concepts) Canonical(phrase string) string {
	if c != nil {
		if v, ok := c.index[strings.ToLower(strings.TrimSpace(phrase))]; ok {
			return v
		}
	}
	return OtherConcept
}
