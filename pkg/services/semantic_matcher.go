package services

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

const (
	exactNameScore     = 1.0
	substringNameScore = 0.8
)

var (
	// Separators are stripped so "Story Points", "story_points" and
	// "story-points" normalize identically.
	separatorPattern = regexp.MustCompile(`[\s_\-.]+`)

	// Jira-style ad-hoc fields arrive as "customfield_10042"; the prefix
	// carries no semantic signal.
	customFieldPrefixPattern = regexp.MustCompile(`^customfield\d*`)
)

// normalizeFieldName reduces a field name to its semantic core: lowercase,
// separators stripped, vendor custom-field prefixes stripped, standalone
// "field" tokens dropped, and the remainder singularized. Only whole tokens
// are dropped, so names like "Garfield" survive intact. Returns "" when
// nothing meaningful is left.
func normalizeFieldName(name string) string {
	tokens := separatorPattern.Split(strings.ToLower(name), -1)
	kept := tokens[:0]
	for _, tok := range tokens {
		if tok != "field" {
			kept = append(kept, tok)
		}
	}
	n := strings.Join(kept, "")
	n = customFieldPrefixPattern.ReplaceAllString(n, "")
	if n == "" {
		return ""
	}
	return inflection.Singular(n)
}

// SemanticMatcher estimates how likely a source field name refers to the same
// concept as a target field name, in [0,1].
type SemanticMatcher interface {
	// Score returns the best similarity of the field's name or display name
	// against the target field name.
	Score(field *models.SourceField, targetName string) float64
}

type semanticCacheKey struct {
	schemaVersion string
	source        string
	target        string
}

// semanticCache memoizes (normalizedSource, normalizedTarget) similarity
// scores. Scoring is a pure function of the rule tables, so entries stay
// valid for the lifetime of the registry version folded into the key.
// Concurrent writers computing the same key produce the same value, so
// last-writer-wins is fine.
type semanticCache struct {
	mu     sync.RWMutex
	scores map[semanticCacheKey]float64
}

func newSemanticCache() *semanticCache {
	return &semanticCache{scores: make(map[semanticCacheKey]float64)}
}

func (c *semanticCache) get(key semanticCacheKey) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	score, ok := c.scores[key]
	return score, ok
}

func (c *semanticCache) put(key semanticCacheKey, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[key] = score
}

func (c *semanticCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scores)
}

// normalizedSynonymGroup is a synonym group with its terms pre-normalized at
// construction time.
type normalizedSynonymGroup struct {
	targets map[string]bool
	score   float64
	terms   []string
}

type semanticMatcher struct {
	registry *schema.Registry
	cache    *semanticCache
	groups   []normalizedSynonymGroup
	logger   *zap.Logger
}

// NewSemanticMatcher creates a SemanticMatcher with a cold cache. The cache
// is owned by this matcher instance, so separate engine instances never share
// memoized scores.
func NewSemanticMatcher(registry *schema.Registry, logger *zap.Logger) SemanticMatcher {
	groups := make([]normalizedSynonymGroup, 0, len(registry.SynonymGroups()))
	for _, g := range registry.SynonymGroups() {
		ng := normalizedSynonymGroup{
			targets: make(map[string]bool, len(g.Targets)),
			score:   g.Score,
			terms:   make([]string, 0, len(g.Terms)),
		}
		for _, t := range g.Targets {
			ng.targets[t] = true
		}
		for _, term := range g.Terms {
			if n := normalizeFieldName(term); n != "" {
				ng.terms = append(ng.terms, n)
			}
		}
		groups = append(groups, ng)
	}

	return &semanticMatcher{
		registry: registry,
		cache:    newSemanticCache(),
		groups:   groups,
		logger:   logger.Named("semantic-matcher"),
	}
}

var _ SemanticMatcher = (*semanticMatcher)(nil)

func (m *semanticMatcher) Score(field *models.SourceField, targetName string) float64 {
	best := m.scoreName(field.Name, targetName)
	if field.DisplayName != "" && field.DisplayName != field.Name {
		if s := m.scoreName(field.DisplayName, targetName); s > best {
			best = s
		}
	}
	return best
}

func (m *semanticMatcher) scoreName(sourceName, targetName string) float64 {
	source := normalizeFieldName(sourceName)
	target := normalizeFieldName(targetName)

	key := semanticCacheKey{
		schemaVersion: m.registry.Version(),
		source:        source,
		target:        target,
	}
	if score, ok := m.cache.get(key); ok {
		return score
	}

	score := m.computeScore(source, targetName, target)
	m.cache.put(key, score)
	return score
}

// computeScore applies the matching rules: exact match wins outright; below
// that the best of substring containment and synonym groups applies, so a
// group scored above 0.8 still wins when its term also happens to be a
// substring of the target ("storypoints" inside "storypointestimate"). Empty
// normalized names match nothing.
func (m *semanticMatcher) computeScore(source, targetName, target string) float64 {
	if source == "" || target == "" {
		return 0.0
	}

	if source == target {
		return exactNameScore
	}

	var best float64
	if strings.Contains(source, target) || strings.Contains(target, source) {
		best = substringNameScore
	}
	for _, g := range m.groups {
		if !g.targets[targetName] || g.score <= best {
			continue
		}
		for _, term := range g.terms {
			if termMatches(source, term) {
				best = g.score
				break
			}
		}
	}
	return best
}

// termMatches checks a normalized source name against one synonym term.
// Short terms ("sp") require equality; longer terms match by containment so
// names like "prioritylevel" still hit "priority".
func termMatches(source, term string) bool {
	if len(term) < 3 {
		return source == term
	}
	return strings.Contains(source, term)
}
