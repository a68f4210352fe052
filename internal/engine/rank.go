package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
)

// Ranking is the outcome of matching one candidate against several jobs.
type Ranking struct {
	Results []*match.CompositeScore `json:"results"`
	Skipped []Skipped               `json:"skipped,omitempty"`
}

// Skipped names a job that could not be scored.
type Skipped struct {
	JobID  string `json:"jobId"`
	Reason string `json:"reason"`
}

// RankJobs scores every job concurrently and orders the results by final
// score, ties broken by job id. Jobs failing validation or the completeness
// check are skipped and reported.
func (e *Engine) RankJobs(ctx context.Context, cand *profile.Candidate, jobs []*profile.Job, company *profile.Company, opts Options) (*Ranking, error) {
	if err := cand.Validate(); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		ranking = &Ranking{Results: make([]*match.CompositeScore, 0, len(jobs))}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.RankConcurrency)

	for i, job := range jobs {
		g.Go(func() error {
			s, err := e.ComputeMatch(gctx, cand, job, company, opts)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				ranking.Results = append(ranking.Results, s)
				return nil
			case errors.Is(err, match.ErrInvalidInput), errors.Is(err, match.ErrInsufficientData):
				id := ""
				if job != nil {
					id = job.ID
				}
				e.log.Info("skipping job", zap.Int("index", i), zap.String("job", id), zap.Error(err))
				ranking.Skipped = append(ranking.Skipped, Skipped{JobID: id, Reason: err.Error()})
				return nil
			default:
				return err
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ranking.Results, func(i, j int) bool {
		a, b := ranking.Results[i], ranking.Results[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		return a.JobID < b.JobID
	})
	sort.Slice(ranking.Skipped, func(i, j int) bool {
		return ranking.Skipped[i].JobID < ranking.Skipped[j].JobID
	})

	if opts.MaxResults > 0 && len(ranking.Results) > opts.MaxResults {
		ranking.Results = ranking.Results[:opts.MaxResults]
	}

	return ranking, nil
}
