package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/criteria"
	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/provider"
)

var (
	now        = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	paris      = geo.Point{Lat: 48.8566, Lon: 2.3522}
	northParis = geo.Point{Lat: 48.9690, Lon: 2.3522}
	errDown    = errors.New("upstream unavailable")
)

func clock() time.Time { return now }

type constSimilarity struct {
	score float64
	calls atomic.Int64
}

func (c *constSimilarity) Similarity(context.Context, string, string) (float64, error) {
	c.calls.Add(1)
	return c.score, nil
}

func (c *constSimilarity) Name() string { return "fake-similarity" }

// stalledSimilarity never answers before its context ends.
type stalledSimilarity struct{}

func (stalledSimilarity) Similarity(ctx context.Context, _, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (stalledSimilarity) Name() string { return "stalled" }

type routeTable struct {
	mu      sync.Mutex
	minutes map[profile.TransportMode]float64
	calls   int
}

func (r *routeTable) Distance(_ context.Context, _, _ geo.Point, mode profile.TransportMode, _ time.Time) (provider.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	m, ok := r.minutes[mode]
	if !ok {
		return provider.Route{}, errDown
	}
	return provider.Route{DurationMinutes: m, DistanceKm: 12.5}, nil
}

func (r *routeTable) Name() string { return "fake-geo" }

func cityRoutes() *routeTable {
	return &routeTable{minutes: map[profile.TransportMode]float64{
		profile.Transit: 22,
		profile.Driving: 95,
	}}
}

func officeManager() *profile.Candidate {
	return &profile.Candidate{
		ID: "cand-1",
		Skills: []profile.Skill{
			{Name: "Brand Management", Proficiency: 0.8},
			{Name: "Customer Service", Proficiency: 0.9},
		},
		Positions: []profile.Position{
			{
				Title:            "Sales Associate",
				Industry:         "luxury retail",
				Start:            profile.NewDate(2008, time.June, 1),
				End:              profile.NewDate(2012, time.June, 1),
				Responsibilities: "Advised clients and maintained the boutique floor",
				Skills:           []string{"customer service"},
			},
			{
				Title:            "Senior Sales Associate",
				Industry:         "luxury retail",
				Start:            profile.NewDate(2012, time.June, 1),
				End:              profile.NewDate(2017, time.June, 1),
				Responsibilities: "Mentored new associates and curated visual merchandising",
				Skills:           []string{"visual merchandising", "clienteling"},
			},
			{
				Title:            "Office Manager",
				Industry:         "luxury",
				Start:            profile.NewDate(2017, time.June, 1),
				Responsibilities: "Managed a team of six, oversaw the store budget, hired and coached staff",
				Skills:           []string{"team management", "budgeting"},
			},
		},
		Home:           profile.Location{Point: &paris, Address: "Paris"},
		PreferredModes: []profile.TransportMode{profile.Transit, profile.Walking},
		Availability: &profile.Availability{
			EarliestStart: profile.NewDate(2025, time.June, 16),
			WorkPattern:   "flexible",
			RemotePref:    "hybrid",
			MaxTravel:     20,
			Overtime:      "occasional",
		},
		Personality: &profile.Personality{
			Values:        []string{"integrity", "client focus", "creativity"},
			WorkStyle:     "collaborative",
			TeamPref:      "collaborative",
			Communication: "diplomatic",
			Adaptability:  0.8,
		},
	}
}

func marketingDirector() *profile.Job {
	return &profile.Job{
		ID:               "job-1",
		Title:            "Director of Marketing, Luxury Sector",
		Industry:         "luxury retail",
		RequiredSkills:   []string{"brand management", "team leadership", "budgeting"},
		Responsibilities: "Lead the marketing team and own the brand budget",
		Seniority:        profile.SeniorityDirector,
		Location:         profile.Location{Point: &northParis, Address: "Saint-Denis"},
		AccessibleModes:  []profile.TransportMode{profile.Transit, profile.Driving},
		StartDate:        profile.NewDate(2025, time.July, 1),
		RemotePolicy:     profile.RemoteHybrid,
		WorkPattern:      "flexible",
		TravelPercent:    10,
		Overtime:         "occasional",
		Culture: &profile.Culture{
			Values:        []string{"integrity", "client focus"},
			WorkStyle:     "collaborative",
			TeamDynamics:  "cross-functional",
			Communication: "formal",
			ChangePace:    "moderate",
		},
	}
}

// plantDirector shares nothing with the office manager profile.
func plantDirector() *profile.Job {
	return &profile.Job{
		ID:               "job-2",
		Title:            "Director of Manufacturing Operations",
		Industry:         "manufacturing",
		RequiredSkills:   []string{"lean manufacturing", "six sigma"},
		Responsibilities: "Run the stamping plant and its maintenance crews",
		Seniority:        profile.SeniorityDirector,
		Location:         profile.Location{Point: &northParis, Address: "Saint-Denis"},
		AccessibleModes:  []profile.TransportMode{profile.Driving},
		StartDate:        profile.NewDate(2025, time.March, 1),
		RemotePolicy:     profile.RemoteOnsite,
		WorkPattern:      "retail",
		TravelPercent:    60,
		Overtime:         "frequent",
		Culture: &profile.Culture{
			Values:        []string{"safety", "efficiency"},
			WorkStyle:     "results",
			TeamDynamics:  "independent",
			Communication: "written",
			ChangePace:    "fast",
		},
	}
}

func newEngine(t *testing.T, sim provider.Similarity, g provider.Geo, mgr *cache.Manager, cfg Config) *Engine {
	t.Helper()
	return New(criteria.Deps{Similarity: sim, Geo: g, Cache: mgr}, cfg, clock, nil)
}

func newManager(t *testing.T) *cache.Manager {
	t.Helper()
	mgr := cache.NewManager(cache.NewMemory(1000, 0, clock), cache.DefaultConfig(), clock, nil)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestComputeMatchStrongCandidate(t *testing.T) {
	t.Parallel()

	e := newEngine(t, &constSimilarity{score: 0.9}, cityRoutes(), nil, Config{})
	s, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, s.FinalScore, 0.85)
	assert.LessOrEqual(t, s.FinalScore, 0.95)
	assert.InDelta(t, 0.89, s.Result(match.Experience).Score, 0.03)
	assert.InDelta(t, 0.85, s.Result(match.Commute).Score, 0.03)
	assert.Equal(t, match.QualityExcellent, s.QualityLevel)
	assert.InDelta(t, match.BonusWeight, s.BonusAdjustment, 1e-9, "every criterion is strong, industries match and transit is preferred")
	assert.False(t, s.LowConfidence)
	assert.Empty(t, s.Fallbacks())

	require.Len(t, s.Breakdown, len(match.Criteria))
	total := s.BonusAdjustment
	for i, r := range s.Breakdown {
		assert.Equal(t, match.Criteria[i], r.Criterion)
		assert.Equal(t, match.Weight(r.Criterion), r.Weight)
		assert.InDelta(t, r.Weight*r.Score, r.Contribution, 1e-12)
		assert.Same(t, r.CriterionResult, s.CriteriaByName[r.Criterion].CriterionResult)
		total += r.Contribution
	}
	assert.InDelta(t, total, s.FinalScore, 1e-12)

	assert.Equal(t, "peak", s.Result(match.Commute).Details["trafficBand"])
	assert.Equal(t, "transit", s.Result(match.Commute).Details["bestMode"])
	assert.Contains(t, s.Performance.EnginesUsed, "semantic:fake-similarity")
	assert.Contains(t, s.Performance.EnginesUsed, "commute:fake-geo")
	assert.NotEmpty(t, s.Performance.RequestID)
	assert.Equal(t, now, s.Performance.Timestamp)
	assert.Greater(t, s.Performance.DataQuality, 0.8)

	assert.Len(t, s.Insights.Strengths, 5)
	assert.Empty(t, s.Insights.Weaknesses)
	assert.Contains(t, s.Insights.NextSteps, "schedule an interview")
}

func TestComputeMatchWeakCandidate(t *testing.T) {
	t.Parallel()

	e := newEngine(t, &constSimilarity{score: 0.05}, cityRoutes(), nil, Config{})
	s, err := e.ComputeMatch(context.Background(), officeManager(), plantDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	assert.Less(t, s.FinalScore, 0.30)
	assert.GreaterOrEqual(t, s.FinalScore, 0.0)
	assert.Equal(t, match.QualityPoor, s.QualityLevel)
	assert.Zero(t, s.BonusAdjustment)
	assert.Equal(t, "driving", s.Result(match.Commute).Details["bestMode"])

	assert.NotEmpty(t, s.Insights.Weaknesses)
	assert.NotEmpty(t, s.Insights.Recommendations)
	assert.Contains(t, s.Insights.Recommendations, "negotiate the start date")
	assert.Contains(t, s.Insights.NextSteps, "do not prioritise this match")
}

func TestComputeMatchIsIdempotent(t *testing.T) {
	t.Parallel()

	mgr := newManager(t)
	sim := &constSimilarity{score: 0.9}
	e := newEngine(t, sim, cityRoutes(), mgr, Config{})

	first, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)
	mgr.Wait()
	calls := sim.calls.Load()

	second, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.FinalScore, second.FinalScore)
	for _, c := range match.Criteria {
		a, b := first.Result(c), second.Result(c)
		assert.Equal(t, a.Score, b.Score, "criterion %s", c)
		assert.Equal(t, a.SubScores, b.SubScores, "criterion %s", c)
		assert.False(t, first.Performance.CacheHits[c], "criterion %s", c)
		assert.True(t, second.Performance.CacheHits[c], "criterion %s", c)
		assert.Equal(t, int(cache.TierExact), b.CacheTier)
	}
	assert.Equal(t, calls, sim.calls.Load(), "tier-1 hits skip the provider")
	assert.NotEqual(t, first.Performance.RequestID, second.Performance.RequestID)

	noCache := DefaultOptions()
	noCache.EnableCaching = false
	third, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, noCache)
	require.NoError(t, err)
	assert.Equal(t, first.FinalScore, third.FinalScore)
	assert.False(t, third.Performance.CacheHits[match.Semantic])
	assert.Greater(t, sim.calls.Load(), calls)
}

func TestComputeMatchGeoOutage(t *testing.T) {
	t.Parallel()

	down := &routeTable{}
	e := newEngine(t, &constSimilarity{score: 0.9}, down, nil, Config{})
	s, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	commute := s.Result(match.Commute)
	assert.Equal(t, match.ConfidenceFallback, commute.Confidence)
	assert.Equal(t, []match.Criterion{match.Commute}, s.Fallbacks())
	assert.Contains(t, s.Performance.EnginesUsed, "commute:"+provider.LocalGeoName)
	assert.NotEmpty(t, s.Warnings)
	assert.Contains(t, s.Insights.Recommendations, "verify the commute estimate, it was computed with fallback confidence")
	assert.Positive(t, down.calls)
}

func TestComputeMatchRejectsInputs(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil, nil, nil, Config{})

	noID := marketingDirector()
	noID.ID = ""
	badCoords := officeManager()
	badCoords.Home.Point = &geo.Point{Lat: 123, Lon: 2}

	tests := []struct {
		name string
		cand *profile.Candidate
		job  *profile.Job
		want error
	}{
		{name: "missing candidate", cand: nil, job: marketingDirector(), want: match.ErrInvalidInput},
		{name: "job without id", cand: officeManager(), job: noID, want: match.ErrInvalidInput},
		{name: "latitude out of range", cand: badCoords, job: marketingDirector(), want: match.ErrInvalidInput},
		{name: "title only job", cand: officeManager(), job: &profile.Job{ID: "j", Title: "Clerk"}, want: match.ErrInsufficientData},
		{name: "empty candidate", cand: &profile.Candidate{ID: "c"}, job: marketingDirector(), want: match.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := e.ComputeMatch(context.Background(), tt.cand, tt.job, nil, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComputeMatchOuterDeadline(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := Config{
		Timeout:          50 * time.Millisecond,
		CriteriaTimeouts: map[string]time.Duration{string(match.Semantic): 5 * time.Second},
	}
	e := New(criteria.Deps{Similarity: stalledSimilarity{}, Geo: cityRoutes()}, cfg, clock, zap.New(core))

	s, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	semantic := s.Result(match.Semantic)
	assert.Equal(t, match.NeutralScore, semantic.Score)
	assert.Equal(t, match.ConfidenceFallback, semantic.Confidence)
	assert.Equal(t, match.Neutral(match.Semantic).Details, semantic.Details)
	assert.NotContains(t, s.Performance.EnginesUsed, "semantic:stalled")
	for _, c := range []match.Criterion{match.Commute, match.Experience, match.Cultural, match.Availability} {
		assert.Equal(t, match.ConfidenceFull, s.Result(c).Confidence, "criterion %s", c)
	}

	entries := logs.FilterMessage("criterion did not finish before the match deadline").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "semantic", entries[0].ContextMap()["criterion"])
}

func TestComputeMatchCriterionDeadline(t *testing.T) {
	t.Parallel()

	cfg := Config{CriteriaTimeouts: map[string]time.Duration{string(match.Semantic): 20 * time.Millisecond}}
	e := newEngine(t, stalledSimilarity{}, cityRoutes(), nil, cfg)

	s, err := e.ComputeMatch(context.Background(), officeManager(), marketingDirector(), nil, DefaultOptions())
	require.NoError(t, err)

	semantic := s.Result(match.Semantic)
	assert.Equal(t, match.ConfidenceFallback, semantic.Confidence)
	assert.NotEqual(t, match.Neutral(match.Semantic).Details["reason"], semantic.Details["reason"],
		"the engine's own estimate replaces a neutral score")
	assert.Contains(t, s.Performance.EnginesUsed, "semantic:"+provider.LocalSimilarityName)
}

func TestComputeMatchScoresStayInRange(t *testing.T) {
	t.Parallel()

	jobs := []*profile.Job{marketingDirector(), plantDirector()}
	remote := marketingDirector()
	remote.ID = "job-remote"
	remote.RemotePolicy = profile.RemoteFull
	jobs = append(jobs, remote)

	for _, sim := range []provider.Similarity{nil, &constSimilarity{score: 0}, &constSimilarity{score: 1}} {
		e := newEngine(t, sim, cityRoutes(), nil, Config{})
		for _, job := range jobs {
			s, err := e.ComputeMatch(context.Background(), officeManager(), job, nil, DefaultOptions())
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s.FinalScore, 0.0)
			assert.LessOrEqual(t, s.FinalScore, 1.0)
			assert.Equal(t, match.QualityFor(s.FinalScore), s.QualityLevel)
		}
	}
}

func TestRankJobs(t *testing.T) {
	t.Parallel()

	invalid := marketingDirector()
	invalid.ID = ""
	sparse := &profile.Job{ID: "job-4", Title: "Clerk"}

	jobs := []*profile.Job{plantDirector(), sparse, marketingDirector(), invalid}

	e := newEngine(t, &constSimilarity{score: 0.6}, cityRoutes(), nil, Config{RankConcurrency: 2})
	ranking, err := e.RankJobs(context.Background(), officeManager(), jobs, nil, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, ranking.Results, 2)
	assert.Equal(t, "job-1", ranking.Results[0].JobID)
	assert.Equal(t, "job-2", ranking.Results[1].JobID)
	assert.Greater(t, ranking.Results[0].FinalScore, ranking.Results[1].FinalScore)

	require.Len(t, ranking.Skipped, 2)
	assert.Equal(t, "", ranking.Skipped[0].JobID)
	assert.Equal(t, "job-4", ranking.Skipped[1].JobID)
	assert.Contains(t, ranking.Skipped[1].Reason, "insufficient data")

	opts := DefaultOptions()
	opts.MaxResults = 1
	top, err := e.RankJobs(context.Background(), officeManager(), jobs, nil, opts)
	require.NoError(t, err)
	require.Len(t, top.Results, 1)
	assert.Equal(t, "job-1", top.Results[0].JobID)

	_, err = e.RankJobs(context.Background(), nil, jobs, nil, opts)
	assert.ErrorIs(t, err, match.ErrInvalidInput)
}

func TestRankJobsTieBreaksOnID(t *testing.T) {
	t.Parallel()

	a, b := marketingDirector(), marketingDirector()
	a.ID, b.ID = "job-b", "job-a"

	e := newEngine(t, &constSimilarity{score: 0.7}, cityRoutes(), nil, Config{})
	ranking, err := e.RankJobs(context.Background(), officeManager(), []*profile.Job{a, b}, nil, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, ranking.Results, 2)
	assert.Equal(t, ranking.Results[0].FinalScore, ranking.Results[1].FinalScore)
	assert.Equal(t, "job-a", ranking.Results[0].JobID)
}

func TestRankJobsFromRequest(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "rank_request.json"))
	require.NoError(t, err)

	req, err := profile.DecodeRequest(data)
	require.NoError(t, err)
	opts, err := DecodeOptions(req.Options)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.MaxResults)

	mgr := newManager(t)
	e := newEngine(t, &constSimilarity{score: 0.6}, cityRoutes(), mgr, Config{})
	ranking, err := e.RankJobs(context.Background(), req.Candidate, req.AllJobs(), req.Company, opts)
	require.NoError(t, err)

	require.Len(t, ranking.Results, 2)
	assert.Empty(t, ranking.Skipped)
	assert.Equal(t, "job-1", ranking.Results[0].JobID)
	assert.Equal(t, "job-2", ranking.Results[1].JobID)
	assert.Greater(t, ranking.Results[0].FinalScore, ranking.Results[1].FinalScore)
	assert.Equal(t, "midday", ranking.Results[0].Result(match.Commute).Details["trafficBand"], "departure comes from the request options")
}
