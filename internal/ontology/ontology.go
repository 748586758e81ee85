package ontology

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed assets/*.yaml
var assets embed.FS

// Asset file names. A directory passed to Load may override any of them.
const (
	SynonymsFile     = "synonyms.yaml"
	RuleKeywordsFile = "rule_keywords.yaml"
	FoodOntologyFile = "food_ontology.yaml"
	KeywordsFile     = "keywords.yaml"
	ConceptsFile     = "concepts.yaml"
	VaguePhrasesFile = "vague_phrases.yaml"
)

// AssetFiles lists every asset in load order.
var AssetFiles = []string{SynonymsFile, RuleKeywordsFile, FoodOntologyFile, KeywordsFile, ConceptsFile, VaguePhrasesFile}

// DefaultFoodProblemDomain is the tier-1 domain whose reviews tier 2 is measured against.
const DefaultFoodProblemDomain = "FOOD_PROBLEM"

// ErrEmptyTable is returned when an asset decodes to nothing.
var ErrEmptyTable = errors.New("ontology table is empty")

// Keyword is one flattened theme keyword.
type Keyword struct {
	Phrase   string `yaml:"phrase" json:"phrase"`
	Theme    string `yaml:"theme" json:"theme"`
	Subtheme string `yaml:"subtheme" json:"subtheme"`
	Polarity string `yaml:"polarity" json:"polarity"`
}

// IsPhrase reports whether the keyword is matched as a substring rather than a token.
func (k Keyword) IsPhrase() bool { return strings.Contains(k.Phrase, " ") }

// DomainRule is a tier-1 issue domain with its substring keywords.
type DomainRule struct {
	Domain   string
	Theme    string
	Keywords []string
}

// DishCategory groups dish names under a category label.
type DishCategory struct {
	Name   string
	Dishes []string
}

// Ontology holds every keyword table the analysis reads. It is loaded once
// and passed explicitly to the components that need it.
type Ontology struct {
	Synonyms          *Synonyms
	Rules             []DomainRule
	Keywords          []Keyword
	DishCategories    []DishCategory
	Concepts          *Concepts
	VaguePhrases      []string
	FoodProblemDomain string
}

// Default loads the embedded tables.
func Default() (*Ontology, error) { return Load("") }

// Load reads the embedded tables, replacing each one found in dir.
func Load(dir string) (*Ontology, error) {
	o := &Ontology{FoodProblemDomain: DefaultFoodProblemDomain}
	for _, name := range AssetFiles {
		b, err := readAsset(dir, name)
		if err != nil {
			return nil, err
		}
		if err := o.decode(name, b); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return o, nil
}

// MustDefault is Default for tests and package-level setup.
func MustDefault() *Ontology {
	o, err := Default()
	if err != nil {
		panic(err)
	}
	return o
}

// Dump writes the embedded tables to dir for editing.
func Dump(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	for _, name := range AssetFiles {
		b, err := assets.ReadFile("assets/" + name)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// Dishes returns every dish name across categories, in file order.
func (o *Ontology) Dishes() []string {
	var out []string
	for _, c := range o.DishCategories {
		out = append(out, c.Dishes...)
	}
	return out
}

// RuleTheme returns the theme a tier-1 domain is linked to, if any.
func (o *Ontology) RuleTheme(domain string) string {
	for _, r := range o.Rules {
		if r.Domain == domain {
			return r.Theme
		}
	}
	return ""
}

func readAsset(dir, name string) ([]byte, error) {
	if dir != "" {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	b, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s: %w", name, err)
	}
	return b, nil
}

func (o *Ontology) decode(name string, b []byte) error {
	switch name {
	case SynonymsFile:
		pairs, err := orderedLists(b)
		if err != nil {
			return err
		}
		o.Synonyms = NewSynonyms(pairs)
	case RuleKeywordsFile:
		rules, err := decodeRules(b)
		if err != nil {
			return err
		}
		o.Rules = rules
	case FoodOntologyFile:
		cats, err := decodeDishes(b)
		if err != nil {
			return err
		}
		o.DishCategories = cats
	case KeywordsFile:
		var kws []Keyword
		if err := yaml.Unmarshal(b, &kws); err != nil {
			return err
		}
		if len(kws) == 0 {
			return ErrEmptyTable
		}
		for i := range kws {
			kws[i].Phrase = strings.ToLower(strings.TrimSpace(kws[i].Phrase))
		}
		o.Keywords = kws
	case ConceptsFile:
		pairs, err := orderedLists(b)
		if err != nil {
			return err
		}
		o.Concepts = NewConcepts(pairs)
	case VaguePhrasesFile:
		var v []string
		if err := yaml.Unmarshal(b, &v); err != nil {
			return err
		}
		o.VaguePhrases = v
	}
	return nil
}

// NamedList is one key of an ordered YAML mapping of string lists.
type NamedList struct {
	Name  string
	Items []string
}

// orderedLists decodes `key: [items]` preserving key order.
func orderedLists(b []byte) ([]NamedList, error) {
	root, err := mappingRoot(b)
	if err != nil {
		return nil, err
	}
	var out []NamedList
	for i := 0; i+1 < len(root.Content); i += 2 {
		var items []string
		if err := root.Content[i+1].Decode(&items); err != nil {
			return nil, fmt.Errorf("key %q: %w", root.Content[i].Value, err)
		}
		out = append(out, NamedList{Name: root.Content[i].Value, Items: items})
	}
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}
	return out, nil
}

func decodeRules(b []byte) ([]DomainRule, error) {
	root, err := mappingRoot(b)
	if err != nil {
		return nil, err
	}
	var out []DomainRule
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		r := DomainRule{Domain: key.Value}
		switch val.Kind {
		case yaml.SequenceNode:
			// bare keyword list
			if err := val.Decode(&r.Keywords); err != nil {
				return nil, fmt.Errorf("domain %q: %w", key.Value, err)
			}
		case yaml.MappingNode:
			var body struct {
				Theme    string   `yaml:"theme"`
				Keywords []string `yaml:"keywords"`
			}
			if err := val.Decode(&body); err != nil {
				return nil, fmt.Errorf("domain %q: %w", key.Value, err)
			}
			r.Theme, r.Keywords = body.Theme, body.Keywords
		default:
			return nil, fmt.Errorf("domain %q: expected list or mapping", key.Value)
		}
		for j, kw := range r.Keywords {
			r.Keywords[j] = strings.ToLower(kw)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}
	return out, nil
}

func decodeDishes(b []byte) ([]DishCategory, error) {
	var doc struct {
		Food struct {
			Dishes yaml.Node `yaml:"dishes"`
		} `yaml:"food"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	n := &doc.Food.Dishes
	if n.Kind != yaml.MappingNode {
		return nil, errors.New("food.dishes must be a mapping")
	}
	var out []DishCategory
	for i := 0; i+1 < len(n.Content); i += 2 {
		var dishes []string
		if err := n.Content[i+1].Decode(&dishes); err != nil {
			return nil, fmt.Errorf("category %q: %w", n.Content[i].Value, err)
		}
		out = append(out, DishCategory{Name: n.Content[i].Value, Dishes: dishes})
	}
	return out, nil
}

func mappingRoot(b []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyTable
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("expected a mapping at document root")
	}
	return root, nil
}
