package criteria

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/dictionary"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/provider"
	"github.com/spigell/hh-matcher/internal/textsim"
	"github.com/spigell/hh-matcher/internal/utils"
)

// Semantic sub-score weights.
const (
	TitleWeight            = 0.40
	SkillsWeight           = 0.35
	ResponsibilitiesWeight = 0.25

	requiredSkillWeight = 1.0
	desiredSkillWeight  = 0.5

	// skillConcurrency bounds how many job skills are scored at once.
	skillConcurrency = 4
)

var semanticWeights = []subWeight{
	{"titleMatch", TitleWeight},
	{"skillsMatch", SkillsWeight},
	{"responsibilitiesMatch", ResponsibilitiesWeight},
}

type semantic struct {
	deps Deps
	log  *zap.Logger
}

func newSemantic(deps Deps) *semantic {
	return &semantic{
		deps: deps,
		log:  logger.WithFields(deps.Logger, logger.CriterionFields(string(match.Semantic), 0)...),
	}
}

func (s *semantic) sealed() {}

func (s *semantic) Criterion() match.Criterion { return match.Semantic }

func (s *semantic) Variant(Input) []string {
	return []string{s.deps.Dictionary.Version(), s.providerName()}
}

func (s *semantic) Status() Status {
	return Status{
		Name:    string(match.Semantic),
		Enabled: true,
		Details: map[string]string{
			"provider":   s.providerName(),
			"dictionary": s.deps.Dictionary.Version(),
		},
	}
}

func (s *semantic) providerName() string {
	if s.deps.Similarity == nil {
		return provider.LocalSimilarityName
	}
	return s.deps.Similarity.Name()
}

func (s *semantic) Evaluate(ctx context.Context, in Input) (*match.CriterionResult, error) {
	sc := &termScorer{
		dict:  s.deps.Dictionary,
		sim:   s.deps.Similarity,
		cache: s.deps.cacheFor(in),
		log:   s.log,
	}
	return s.score(ctx, sc, in), nil
}

func (s *semantic) Fallback(in Input) *match.CriterionResult {
	sc := &termScorer{dict: s.deps.Dictionary, log: s.log}
	res := s.score(context.Background(), sc, in)
	res.Confidence = match.ConfidenceFallback
	return res
}

func (s *semantic) score(ctx context.Context, sc *termScorer, in Input) *match.CriterionResult {
	res := newResult(match.Semantic)

	res.SubScores["titleMatch"] = sc.score(ctx, "title", in.Candidate.Title(), in.Job.Title)
	res.SubScores["skillsMatch"] = s.skills(ctx, sc, in.Candidate, in.Job)

	candText, jobText := in.Candidate.Responsibilities(), in.Job.Responsibilities
	if strings.TrimSpace(candText) == "" || strings.TrimSpace(jobText) == "" {
		res.SubScores["responsibilitiesMatch"] = match.NeutralScore
	} else {
		res.SubScores["responsibilitiesMatch"] = sc.text(ctx, candText, jobText)
	}

	res.Score = weighted(res.SubScores, semanticWeights)
	res.Confidence = sc.confidence()
	res.Details["engine"] = sc.engine()
	res.Details["dictionaryVersion"] = s.deps.Dictionary.Version()
	return res
}

// skills averages, over the job skills, the best match among the candidate
// skills. Required skills weigh twice as much as desired ones.
func (s *semantic) skills(ctx context.Context, sc *termScorer, cand *profile.Candidate, job *profile.Job) float64 {
	type wanted struct {
		name   string
		weight float64
	}
	var want []wanted
	for _, n := range job.RequiredSkills {
		want = append(want, wanted{n, requiredSkillWeight})
	}
	for _, n := range job.DesiredSkills {
		want = append(want, wanted{n, desiredSkillWeight})
	}
	if len(want) == 0 {
		return match.NeutralScore
	}

	have := candidateSkills(cand)
	best := make([]float64, len(want))

	var g errgroup.Group
	g.SetLimit(skillConcurrency)
	for i, w := range want {
		g.Go(func() error {
			for _, h := range have {
				if v := sc.score(ctx, "skill", h, w.name); v > best[i] {
					best[i] = v
				}
				if best[i] >= 1 {
					break
				}
			}
			return nil
		})
	}
	g.Wait()

	total, weights := 0.0, 0.0
	for i, w := range want {
		total += best[i] * w.weight
		weights += w.weight
	}
	return total / weights
}

// candidateSkills returns top-level and position skills, deduplicated by canonical form.
func candidateSkills(c *profile.Candidate) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		key := textsim.Normalize(name)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	for _, s := range c.Skills {
		add(s.Name)
	}
	for _, p := range c.SortedPositions() {
		for _, s := range p.Skills {
			add(s)
		}
	}
	return out
}

// termScorer resolves term similarity through the dictionary, the tier-2
// cache, the provider and finally the local estimator. It counts how many
// pairs needed a provider answer and how many got one. It is safe for
// concurrent use.
type termScorer struct {
	dict  *dictionary.Dictionary
	sim   provider.Similarity
	cache *cache.Manager
	log   *zap.Logger

	mu             sync.Mutex
	needed, served int
	usedLocal      bool
}

type cachedSimilarity struct {
	Score float64 `json:"score"`
}

// score compares two short terms (titles or skills).
func (t *termScorer) score(ctx context.Context, kind, a, b string) float64 {
	ca, cb := t.dict.Canonical(a), t.dict.Canonical(b)
	if ca == "" || cb == "" {
		return 0
	}
	if v, ok := t.dict.Related(ca, cb); ok {
		return v
	}

	t.count(&t.needed)
	if t.sim == nil {
		return t.estimate(ca, cb)
	}

	x, y := ca, cb
	if y < x {
		x, y = y, x
	}
	key := cache.PatternKey(string(match.Semantic), kind, t.dict.Version(), t.sim.Name(), profile.Hash(x, y))

	// Concurrent matches asking for the same pair share one provider call.
	var cached cachedSimilarity
	_, err := t.cache.GetOrCompute(ctx, cache.TierPattern, key, &cached, func(ctx context.Context) (any, error) {
		v, err := t.sim.Similarity(ctx, ca, cb)
		if err != nil {
			return nil, err
		}
		return cachedSimilarity{Score: v}, nil
	})
	if err != nil {
		t.log.Debug("similarity provider failed, using local estimate",
			zap.String("kind", kind), zap.String("a", ca), zap.String("b", cb), zap.Error(err))
		return t.estimate(ca, cb)
	}

	t.count(&t.served)
	return cached.Score
}

// text compares free text. Long inputs are not cached below tier 1.
func (t *termScorer) text(ctx context.Context, a, b string) float64 {
	t.count(&t.needed)
	if t.sim == nil {
		return t.estimate(a, b)
	}

	v, err := t.sim.Similarity(ctx, a, b)
	if err != nil {
		t.log.Debug("similarity provider failed on text, using local estimate",
			zap.String("a", utils.TruncateForLog(a, 80)), zap.Error(err))
		return t.estimate(a, b)
	}

	t.count(&t.served)
	return v
}

// estimate scores a pair with the local provider, which never fails.
func (t *termScorer) estimate(a, b string) float64 {
	t.mu.Lock()
	t.usedLocal = true
	t.mu.Unlock()
	v, _ := provider.LocalSimilarity{}.Similarity(context.Background(), a, b)
	return v
}

func (t *termScorer) count(n *int) {
	t.mu.Lock()
	*n++
	t.mu.Unlock()
}

func (t *termScorer) confidence() match.Confidence {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.needed == 0 || t.served == t.needed:
		return match.ConfidenceFull
	case t.served > 0:
		return match.ConfidenceDegraded
	default:
		return match.ConfidenceFallback
	}
}

func (t *termScorer) engine() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var names []string
	if t.served > 0 && t.sim != nil {
		names = append(names, t.sim.Name())
	}
	if t.usedLocal {
		names = append(names, provider.LocalSimilarityName)
	}
	if len(names) == 0 {
		return "dictionary"
	}
	return engines(names...)
}
