// Package criteria holds the five criterion engines. The set is closed: the
// Evaluator interface cannot be implemented outside this package.
package criteria

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/dictionary"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/provider"
)

// Evaluator scores one criterion for a (candidate, job) pair.
type Evaluator interface {
	Criterion() match.Criterion
	// Evaluate may block on providers and the cache; it honours ctx.
	Evaluate(ctx context.Context, in Input) (*match.CriterionResult, error)
	// Fallback computes the result without external providers. It never blocks.
	Fallback(in Input) *match.CriterionResult
	// Variant returns the parameters, beyond the input fingerprints, that the
	// result depends on. They are part of the tier-1 key.
	Variant(in Input) []string
	Status() Status

	sealed()
}

// Deps aggregates dependencies shared across all criterion engines.
// A nil Similarity or Geo means only local estimation is available.
type Deps struct {
	Similarity provider.Similarity
	Geo        provider.Geo
	Dictionary *dictionary.Dictionary
	Cache      *cache.Manager
	Logger     *zap.Logger
}

// Input is the immutable request state handed to every engine.
type Input struct {
	Candidate *profile.Candidate
	Job       *profile.Job
	Company   *profile.Company
	Departure time.Time
	Now       time.Time
	UseCache  bool
}

// Status represents runtime information about an engine.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// All returns the five engines in aggregation order.
func All(deps Deps) []Evaluator {
	if deps.Dictionary == nil {
		deps.Dictionary = dictionary.Default()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return []Evaluator{
		newSemantic(deps),
		newCommute(deps),
		newExperience(deps),
		newCultural(deps),
		newAvailability(deps),
	}
}

// Describe returns status entries for the provided engines.
func Describe(evaluators []Evaluator) []Status {
	statuses := make([]Status, 0, len(evaluators))
	for _, e := range evaluators {
		statuses = append(statuses, e.Status())
	}
	return statuses
}

// cacheFor returns the cache manager when the request allows caching. A nil
// manager always misses.
func (d Deps) cacheFor(in Input) *cache.Manager {
	if !in.UseCache {
		return nil
	}
	return d.Cache
}

func newResult(c match.Criterion) *match.CriterionResult {
	return &match.CriterionResult{
		Criterion:  c,
		SubScores:  make(map[string]float64),
		Details:    make(map[string]string),
		Confidence: match.ConfidenceFull,
	}
}

// subWeight names a sub-score and its share of the criterion score.
type subWeight struct {
	name   string
	weight float64
}

// weighted sums sub-scores in declaration order. Missing sub-scores count as zero.
func weighted(subs map[string]float64, weights []subWeight) float64 {
	total := 0.0
	for _, w := range weights {
		total += subs[w.name] * w.weight
	}
	return match.Clamp(total)
}

// fill sets every sub-score to v.
func fill(subs map[string]float64, weights []subWeight, v float64) {
	for _, w := range weights {
		subs[w.name] = v
	}
}

// engines joins provider names for the engine detail, skipping duplicates.
func engines(names ...string) string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return strings.Join(out, "+")
}

// pairScore looks up a symmetric compatibility table. Same values score 1.
func pairScore(table map[[2]string]float64, a, b string, unknown, mismatch float64) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return unknown
	}
	if a == b {
		return 1
	}
	if v, ok := table[[2]string{a, b}]; ok {
		return v
	}
	if v, ok := table[[2]string{b, a}]; ok {
		return v
	}
	return mismatch
}
