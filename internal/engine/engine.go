// Package engine orchestrates the criterion engines into a composite score.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/criteria"
	"github.com/spigell/hh-matcher/internal/dictionary"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/quality"
	"github.com/spigell/hh-matcher/internal/utils"
)

// StrongScore is the criterion score that counts towards the bonus.
const StrongScore = 0.8

// Bonus component shares.
const (
	bonusStrongShare   = 0.5
	bonusIndustryShare = 0.3
	bonusModeShare     = 0.2
)

type Engine struct {
	cfg        Config
	evaluators []criteria.Evaluator
	cache      *cache.Manager
	dict       *dictionary.Dictionary
	now        func() time.Time
	log        *zap.Logger
}

// New builds an engine over the five criteria. A nil clock uses time.Now.
func New(deps criteria.Deps, cfg Config, now func() time.Time, log *zap.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Dictionary == nil {
		deps.Dictionary = dictionary.Default()
	}
	if deps.Logger == nil {
		deps.Logger = log
	}

	return &Engine{
		cfg:        cfg.withDefaults(),
		evaluators: criteria.All(deps),
		cache:      deps.Cache,
		dict:       deps.Dictionary,
		now:        now,
		log:        log.Named("engine"),
	}
}

// Describe reports the criterion engines in use.
func (e *Engine) Describe() []criteria.Status {
	return criteria.Describe(e.evaluators)
}

// ComputeMatch scores one candidate against one job. Only ErrInvalidInput,
// ErrInsufficientData and ErrScoreOutOfRange are returned; provider and cache
// failures degrade into fallback criteria.
func (e *Engine) ComputeMatch(ctx context.Context, cand *profile.Candidate, job *profile.Job, company *profile.Company, opts Options) (*match.CompositeScore, error) {
	start := e.now()
	requestID := uuid.NewString()
	log := e.log.With(zap.String(logger.FieldRequestID, requestID))

	if err := validate(cand, job, company); err != nil {
		return nil, err
	}

	report, err := quality.Check(cand, job, e.cfg.MinCompleteness)
	if err != nil {
		log.Info("rejecting match", zap.String("job", job.ID), zap.Error(err))
		return nil, err
	}

	in := criteria.Input{
		Candidate: cand,
		Job:       job,
		Company:   company,
		Departure: opts.DepartureTime,
		Now:       start,
		UseCache:  opts.EnableCaching,
	}
	if in.Departure.IsZero() {
		in.Departure = e.cfg.departureOn(start)
	}

	results := e.fanOut(ctx, in, log)

	s := &match.CompositeScore{
		CandidateID:    cand.ID,
		JobID:          job.ID,
		CriteriaByName: make(map[match.Criterion]*match.WeightedResult, len(match.Criteria)),
		Performance: match.Performance{
			RequestID: requestID,
			Timestamp: start.UTC(),
			CacheHits: make(map[match.Criterion]bool, len(match.Criteria)),
		},
	}

	total := 0.0
	for _, c := range match.Criteria {
		res, ok := results[c]
		if !ok {
			log.Warn("criterion did not finish before the match deadline", logger.CriterionFields(string(c), 0)...)
			res = match.Neutral(c)
		}
		if err := res.Validate(); err != nil {
			log.Error("criterion produced an invalid score", zap.Error(err))
			return nil, err
		}

		w := match.Weight(c)
		s.Breakdown = append(s.Breakdown, match.WeightedResult{
			CriterionResult: res,
			Weight:          w,
			Contribution:    w * res.Score,
		})
		total += w * res.Score

		s.Performance.CacheHits[c] = res.CacheTier > 0
		if eng := res.Details["engine"]; eng != "" && eng != "none" {
			s.Performance.EnginesUsed = append(s.Performance.EnginesUsed, fmt.Sprintf("%s:%s", c, eng))
		}
	}
	for i := range s.Breakdown {
		s.CriteriaByName[s.Breakdown[i].Criterion] = &s.Breakdown[i]
	}

	s.BonusAdjustment = match.BonusWeight * e.bonus(in, s)
	s.FinalScore = match.Clamp(total + s.BonusAdjustment)
	s.QualityLevel = match.QualityFor(s.FinalScore)

	quality.Annotate(s, report)
	s.Insights = buildInsights(s)

	s.Performance.CalculationTime = e.now().Sub(start)
	s.Performance.CalculationMs = utils.Round(float64(s.Performance.CalculationTime.Microseconds())/1000, 3)

	log.Info("match computed",
		zap.String("candidate", cand.ID),
		zap.String("job", job.ID),
		zap.Float64("final_score", utils.Round(s.FinalScore, 4)),
		zap.String("quality", string(s.QualityLevel)),
		zap.Bool("low_confidence", s.LowConfidence),
		zap.Duration("took", s.Performance.CalculationTime),
	)

	return s, nil
}

func validate(cand *profile.Candidate, job *profile.Job, company *profile.Company) error {
	return errors.Join(cand.Validate(), job.Validate(), company.Validate())
}

// fanOut runs every criterion concurrently and collects what finishes before
// the outer deadline. Criteria missing from the result did not finish.
func (e *Engine) fanOut(ctx context.Context, in criteria.Input, log *zap.Logger) map[match.Criterion]*match.CriterionResult {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out := make(chan *match.CriterionResult, len(e.evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for _, ev := range e.evaluators {
		g.Go(func() error {
			out <- e.evaluate(gctx, ev, in, log)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()

	results := make(map[match.Criterion]*match.CriterionResult, len(e.evaluators))
	for {
		select {
		case res, ok := <-out:
			if !ok {
				return results
			}
			if res != nil {
				results[res.Criterion] = res
			}
		case <-ctx.Done():
			return results
		}
	}
}

type outcome struct {
	res *match.CriterionResult
	err error
}

// evaluate produces one criterion result: a tier-1 hit, the engine's own
// result, or its fallback when the engine fails or runs out of time. It
// returns nil once the outer deadline has passed.
func (e *Engine) evaluate(ctx context.Context, ev criteria.Evaluator, in criteria.Input, log *zap.Logger) *match.CriterionResult {
	start := e.now()
	c := ev.Criterion()
	log = logger.WithFields(log, logger.CriterionFields(string(c), 0)...)

	key := ""
	if in.UseCache && e.cache != nil {
		parts := append([]string{in.Candidate.Fingerprint(), in.Job.Fingerprint(), in.Company.Fingerprint()}, ev.Variant(in)...)
		key = cache.ExactKey(string(c), parts...)

		var cached match.CriterionResult
		if e.cache.Get(ctx, cache.TierExact, key, &cached) {
			cached.CacheTier = int(cache.TierExact)
			cached.Latency = e.now().Sub(start)
			log.Debug("criterion served from cache", zap.String("tier", cache.TierExact.String()))
			return &cached
		}
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.timeoutFor(c))
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := ev.Evaluate(cctx, in)
		done <- outcome{res, err}
	}()

	var res *match.CriterionResult
	select {
	case o := <-done:
		res = o.res
		if o.err != nil || res == nil {
			log.Warn("criterion failed, using fallback", zap.Error(o.err))
			res = ev.Fallback(in)
		}
	case <-cctx.Done():
		if ctx.Err() == nil {
			log.Warn("criterion timed out, using fallback",
				zap.Duration("timeout", e.cfg.timeoutFor(c)),
				zap.Error(match.ErrProviderTimeout),
			)
			res = ev.Fallback(in)
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	res.Latency = e.now().Sub(start)
	if key != "" && res.Confidence != match.ConfidenceFallback && res.Validate() == nil {
		e.cache.Set(cache.TierExact, key, res)
	}

	log.Debug("criterion evaluated",
		zap.Float64("score", utils.Round(res.Score, 4)),
		zap.String("confidence", string(res.Confidence)),
		zap.Duration("took", res.Latency),
	)
	return res
}

// bonus rewards consistently strong matches, a shared industry and a commute
// by the candidate's primary mode. The result is in [0,1].
func (e *Engine) bonus(in criteria.Input, s *match.CompositeScore) float64 {
	strong := 0
	for _, r := range s.Breakdown {
		if r.Score >= StrongScore {
			strong++
		}
	}

	b := bonusStrongShare * float64(strong) / float64(len(match.Criteria))
	if e.dict.SameIndustry(in.Candidate.Industry(), in.Job.Industry) {
		b += bonusIndustryShare
	}
	if commute := s.Result(match.Commute); commute != nil {
		if primary := in.Candidate.PrimaryMode(); primary != "" && commute.Details["bestMode"] == string(primary) {
			b += bonusModeShare
		}
	}
	return match.Clamp(b)
}
