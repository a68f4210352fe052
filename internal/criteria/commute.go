package criteria

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/provider"
)

// Commute sub-score weights.
const (
	DurationWeight   = 0.40
	EaseWeight       = 0.30
	CostWeight       = 0.20
	PreferenceWeight = 0.10

	// FallbackPenalty scales scores derived from the straight-line estimate.
	FallbackPenalty = 0.7
)

// BestModeRemote is reported for fully remote jobs.
const BestModeRemote = "remote"

var commuteWeights = []subWeight{
	{"duration", DurationWeight},
	{"ease", EaseWeight},
	{"cost", CostWeight},
	{"preference", PreferenceWeight},
}

type modeTraits struct {
	ease, cost float64
}

var modeTable = map[profile.TransportMode]modeTraits{
	profile.Driving: {ease: 0.70, cost: 0.40},
	profile.Transit: {ease: 0.75, cost: 0.75},
	profile.Cycling: {ease: 0.60, cost: 1.00},
	profile.Walking: {ease: 0.90, cost: 1.00},
}

// durationAnchors are (minutes, score) points joined by straight lines.
var durationAnchors = [][2]float64{{30, 1.0}, {45, 0.8}, {60, 0.6}, {90, 0.2}}

// DurationScore maps a door-to-door duration onto [0.1, 1].
func DurationScore(minutes float64) float64 {
	first, last := durationAnchors[0], durationAnchors[len(durationAnchors)-1]
	switch {
	case minutes <= first[0]:
		return first[1]
	case minutes > last[0]:
		return 0.1
	}
	for i := 1; i < len(durationAnchors); i++ {
		lo, hi := durationAnchors[i-1], durationAnchors[i]
		if minutes <= hi[0] {
			frac := (minutes - lo[0]) / (hi[0] - lo[0])
			return lo[1] + frac*(hi[1]-lo[1])
		}
	}
	return last[1]
}

// TrafficBand names the time-of-day band of departure and its duration multiplier.
func TrafficBand(departure time.Time) (string, float64) {
	h := departure.Hour()
	switch {
	case (h >= 7 && h < 9) || (h >= 17 && h < 19):
		return "peak", 1.5
	case h >= 11 && h < 14:
		return "midday", 0.9
	default:
		return "offpeak", 1.1
	}
}

// trafficSensitive reports whether the mode shares the road with traffic.
func trafficSensitive(mode profile.TransportMode) bool {
	return mode == profile.Driving || mode == profile.Transit
}

type commute struct {
	deps Deps
	log  *zap.Logger
}

func newCommute(deps Deps) *commute {
	return &commute{
		deps: deps,
		log:  logger.WithFields(deps.Logger, logger.CriterionFields(string(match.Commute), 0)...),
	}
}

func (c *commute) sealed() {}

func (c *commute) Criterion() match.Criterion { return match.Commute }

func (c *commute) Variant(in Input) []string {
	band, _ := TrafficBand(in.Departure)
	return []string{band, c.providerName()}
}

func (c *commute) Status() Status {
	return Status{
		Name:    string(match.Commute),
		Enabled: true,
		Details: map[string]string{"provider": c.providerName()},
	}
}

func (c *commute) providerName() string {
	if c.deps.Geo == nil {
		return provider.LocalGeoName
	}
	return c.deps.Geo.Name()
}

// route is one evaluated transport mode.
type route struct {
	mode       profile.TransportMode
	route      provider.Route
	minutes    float64
	subs       map[string]float64
	score      float64
	prefRank   int
	source     string
	tier       int
	confidence match.Confidence
}

type cachedRoute struct {
	Route  provider.Route `json:"route"`
	Source string         `json:"source"`
}

func (c *commute) Evaluate(ctx context.Context, in Input) (*match.CriterionResult, error) {
	return c.evaluate(ctx, in, false), nil
}

func (c *commute) Fallback(in Input) *match.CriterionResult {
	res := c.evaluate(context.Background(), in, true)
	res.Confidence = match.ConfidenceFallback
	return res
}

func (c *commute) evaluate(ctx context.Context, in Input, offline bool) *match.CriterionResult {
	res := newResult(match.Commute)
	cand, job := in.Candidate, in.Job

	if job.Remote() {
		fill(res.SubScores, commuteWeights, 1)
		res.Score = 1
		res.Details["bestMode"] = BestModeRemote
		res.Details["engine"] = "none"
		return res
	}

	if !cand.Home.HasPoint() || !job.Location.HasPoint() {
		fill(res.SubScores, commuteWeights, match.NeutralScore)
		res.Score = match.NeutralScore
		res.Confidence = match.ConfidenceDegraded
		res.Details["reason"] = "coordinates missing"
		res.Details["engine"] = "none"
		return res
	}

	from, to := *cand.Home.Point, *job.Location.Point
	band, multiplier := TrafficBand(in.Departure)

	routes := make([]route, 0, len(profile.TransportModes))
	modes, matched := candidateModes(cand, job)
	for _, mode := range modes {
		r := c.route(ctx, in, from, to, mode, band, offline)
		r.prefRank = -1
		if matched {
			r.prefRank = cand.PrefersMode(mode)
		}

		r.minutes = r.route.DurationMinutes
		if trafficSensitive(mode) {
			r.minutes *= multiplier
		}

		traits := modeTable[mode]
		r.subs = map[string]float64{
			"duration":   DurationScore(r.minutes),
			"ease":       traits.ease,
			"cost":       traits.cost,
			"preference": preferenceBonus(r.prefRank),
		}
		r.score = weighted(r.subs, commuteWeights)
		if r.confidence == match.ConfidenceFallback {
			r.score *= FallbackPenalty
		}
		routes = append(routes, r)
	}

	best := pickRoute(routes)

	res.Score = match.Clamp(best.score)
	res.SubScores = best.subs
	res.Confidence = best.confidence
	res.CacheTier = best.tier
	res.Details["bestMode"] = string(best.mode)
	res.Details["durationMinutes"] = strconv.FormatFloat(best.minutes, 'f', 1, 64)
	res.Details["distanceKm"] = strconv.FormatFloat(best.route.DistanceKm, 'f', 1, 64)
	res.Details["trafficBand"] = band
	res.Details["engine"] = best.source
	res.Details["modesEvaluated"] = strconv.Itoa(len(routes))

	c.log.Debug("commute evaluated",
		zap.String("best_mode", string(best.mode)),
		zap.Float64("minutes", best.minutes),
		zap.String("source", best.source),
	)
	return res
}

// candidateModes returns the modes worth evaluating, in the candidate's
// preference order. matched is false when no preferred mode reaches the job.
func candidateModes(cand *profile.Candidate, job *profile.Job) (modes []profile.TransportMode, matched bool) {
	var both []profile.TransportMode
	for _, m := range cand.PreferredModes {
		if job.AllowsMode(m) {
			both = append(both, m)
		}
	}
	switch {
	case len(both) > 0:
		return both, true
	case len(job.AccessibleModes) > 0:
		return job.AccessibleModes, false
	case len(cand.PreferredModes) > 0:
		return cand.PreferredModes, false
	default:
		return []profile.TransportMode{profile.Driving}, false
	}
}

func preferenceBonus(rank int) float64 {
	switch {
	case rank == 0:
		return 1
	case rank > 0:
		return 0.5
	default:
		return 0
	}
}

// pickRoute orders by score, then primary preference, then duration, then mode name.
func pickRoute(routes []route) route {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if (a.prefRank == 0) != (b.prefRank == 0) {
			return a.prefRank == 0
		}
		if a.minutes != b.minutes {
			return a.minutes < b.minutes
		}
		return a.mode < b.mode
	})
	return routes[0]
}

// route resolves travel for one mode: tier-2 zone cache, tier-3 proximity
// cache, the provider, then the straight-line estimate.
func (c *commute) route(ctx context.Context, in Input, from, to geo.Point, mode profile.TransportMode, band string, offline bool) route {
	estimate := func() route {
		r, err := provider.LocalGeo{}.Distance(ctx, from, to, mode, in.Departure)
		if err != nil {
			c.log.Warn("unknown transport mode", zap.String("transport_mode", string(mode)), zap.Error(err))
		}
		return route{mode: mode, route: r, source: provider.LocalGeoName, confidence: match.ConfidenceFallback}
	}

	if offline || c.deps.Geo == nil {
		return estimate()
	}

	mgr := c.deps.cacheFor(in)
	name := c.deps.Geo.Name()
	zoneKey := cache.PatternKey(string(match.Commute), geo.Zone(from), geo.Zone(to), string(mode), band, name)
	scope := string(match.Commute) + ":" + string(mode) + ":" + band + ":" + name

	var cached cachedRoute
	if mgr.Get(ctx, cache.TierPattern, zoneKey, &cached) {
		return route{mode: mode, route: cached.Route, source: cached.Source, tier: int(cache.TierPattern), confidence: match.ConfidenceFull}
	}
	if mgr.Nearest(ctx, scope, from, to, &cached) {
		return route{mode: mode, route: cached.Route, source: cached.Source, tier: int(cache.TierApprox), confidence: match.ConfidenceDegraded}
	}

	r, err := c.deps.Geo.Distance(ctx, from, to, mode, in.Departure)
	if err != nil {
		c.log.Debug("geo provider failed, using straight-line estimate",
			zap.String("transport_mode", string(mode)), zap.Error(err))
		return estimate()
	}

	entry := cachedRoute{Route: r, Source: name}
	mgr.Set(cache.TierPattern, zoneKey, entry)
	mgr.SetNear(scope, from, to, entry)
	return route{mode: mode, route: r, source: name, confidence: match.ConfidenceFull}
}
