// Package schema holds the canonical target schema and the versioned rule
// tables (synonym groups, type-compatibility matrix, context rules) that
// drive field mapping. The tables live in an embedded YAML document so they
// can be tuned and tested independently of scoring control flow.
package schema

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mapwise/mapping-engine/pkg/models"
)

//go:embed rules.yaml
var rulesYAML []byte

// TargetField is one entry of the canonical schema.
type TargetField struct {
	Name        string           `yaml:"name"`
	Type        models.FieldType `yaml:"type"`
	Required    bool             `yaml:"required"`
	Description string           `yaml:"description"`
}

// SynonymGroup maps a set of equivalent terms onto one or more target fields
// at a fixed similarity score.
type SynonymGroup struct {
	Targets []string `yaml:"targets"`
	Score   float64  `yaml:"score"`
	Terms   []string `yaml:"terms"`
}

// ContextRuleMatch selects the sample-inspection strategy of a context rule.
type ContextRuleMatch string

const (
	// MatchAllNumbersInSet fires when every non-null numeric sample is drawn
	// from the rule's number set.
	MatchAllNumbersInSet ContextRuleMatch = "all_numbers_in_set"
	// MatchAnyTextInSet fires when any sample text equals one of the rule's
	// texts, case-insensitively.
	MatchAnyTextInSet ContextRuleMatch = "any_text_in_set"
)

// ContextRule describes one value-shape corroboration rule.
type ContextRule struct {
	Target     string           `yaml:"target"`
	SourceType models.FieldType `yaml:"source_type"`
	Match      ContextRuleMatch `yaml:"match"`
	Numbers    []float64        `yaml:"numbers,omitempty"`
	Texts      []string         `yaml:"texts,omitempty"`
	Boost      float64          `yaml:"boost"`
}

type typePair struct {
	A     models.FieldType `yaml:"a"`
	B     models.FieldType `yaml:"b"`
	Score float64          `yaml:"score"`
}

type rulesDocument struct {
	Version      string         `yaml:"version"`
	TargetFields []TargetField  `yaml:"target_fields"`
	Synonyms     []SynonymGroup `yaml:"synonym_groups"`
	TypeCompat   struct {
		Default float64    `yaml:"default"`
		Pairs   []typePair `yaml:"pairs"`
	} `yaml:"type_compatibility"`
	ContextRules []ContextRule `yaml:"context_rules"`
}

type typeKey struct {
	a, b models.FieldType
}

// Registry is the single source of truth for target field names and matching
// rule tables. It is immutable after Load, so it is safe to share across
// goroutines.
type Registry struct {
	version      string
	fields       map[string]TargetField
	order        []string
	synonyms     []SynonymGroup
	typeScores   map[typeKey]float64
	typeDefault  float64
	contextRules []ContextRule
}

// Load parses the embedded rule tables into a Registry.
func Load() (*Registry, error) {
	return load(rulesYAML)
}

func load(raw []byte) (*Registry, error) {
	var doc rulesDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse schema rules: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("schema rules missing version")
	}
	if len(doc.TargetFields) == 0 {
		return nil, fmt.Errorf("schema rules define no target fields")
	}

	r := &Registry{
		version:      doc.Version,
		fields:       make(map[string]TargetField, len(doc.TargetFields)),
		order:        make([]string, 0, len(doc.TargetFields)),
		synonyms:     doc.Synonyms,
		typeScores:   make(map[typeKey]float64, len(doc.TypeCompat.Pairs)*2),
		typeDefault:  doc.TypeCompat.Default,
		contextRules: doc.ContextRules,
	}

	for _, f := range doc.TargetFields {
		if !models.IsValidFieldType(f.Type) {
			return nil, fmt.Errorf("target field %q has unknown type %q", f.Name, f.Type)
		}
		if _, dup := r.fields[f.Name]; dup {
			return nil, fmt.Errorf("duplicate target field %q", f.Name)
		}
		r.fields[f.Name] = f
		r.order = append(r.order, f.Name)
	}

	// Compatibility pairs are symmetric.
	for _, p := range doc.TypeCompat.Pairs {
		r.typeScores[typeKey{p.A, p.B}] = p.Score
		r.typeScores[typeKey{p.B, p.A}] = p.Score
	}

	for _, g := range doc.Synonyms {
		for _, target := range g.Targets {
			if _, ok := r.fields[target]; !ok {
				return nil, fmt.Errorf("synonym group references unknown target %q", target)
			}
		}
	}
	for _, cr := range doc.ContextRules {
		if _, ok := r.fields[cr.Target]; !ok {
			return nil, fmt.Errorf("context rule references unknown target %q", cr.Target)
		}
	}

	return r, nil
}

// Version identifies the rule-table revision that produced a result.
func (r *Registry) Version() string {
	return r.version
}

// Entries returns all target fields in declaration order.
func (r *Registry) Entries() []TargetField {
	out := make([]TargetField, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name])
	}
	return out
}

// Field looks up a target field by name.
func (r *Registry) Field(name string) (TargetField, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// RequiredFieldNames returns the names of all required target fields sorted
// alphabetically.
func (r *Registry) RequiredFieldNames() []string {
	var names []string
	for _, f := range r.fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

// SynonymGroups returns the semantic equivalence groups.
func (r *Registry) SynonymGroups() []SynonymGroup {
	return r.synonyms
}

// TypeScore returns the compatibility score for a (source, target) type pair.
// Exact matches score 1.0; unlisted pairs fall back to the table default,
// which is deliberately above zero to leave room for unusual but plausible
// mappings.
func (r *Registry) TypeScore(source, target models.FieldType) float64 {
	if source == target {
		return 1.0
	}
	if score, ok := r.typeScores[typeKey{source, target}]; ok {
		return score
	}
	return r.typeDefault
}

// ContextRules returns the sample-inspection rules.
func (r *Registry) ContextRules() []ContextRule {
	return r.contextRules
}
