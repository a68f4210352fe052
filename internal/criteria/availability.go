package criteria

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
)

// Availability sub-score weights.
const (
	StartWeight    = 0.35
	ScheduleWeight = 0.25
	RemoteWeight   = 0.20
	TravelWeight   = 0.15
	OvertimeWeight = 0.05

	// unstated is used when only one side names a preference.
	unstated = 0.7
)

var availabilityWeights = []subWeight{
	{"start", StartWeight},
	{"schedule", ScheduleWeight},
	{"remote", RemoteWeight},
	{"travel", TravelWeight},
	{"overtime", OvertimeWeight},
}

// startWindows maps how many days a start is off to its score.
var startWindows = []struct {
	days  float64
	score float64
}{
	{14, 0.9},
	{30, 0.75},
	{60, 0.5},
	{90, 0.3},
}

// schedulePatterns compares the candidate work pattern (first) with the job's.
var schedulePatterns = map[[2]string]float64{
	{"traditional", "flexible"}: 0.8,
	{"traditional", "hybrid"}:   0.7,
	{"traditional", "startup"}:  0.3,
	{"traditional", "retail"}:   0.4,
	{"flexible", "hybrid"}:      0.9,
	{"flexible", "startup"}:     0.7,
	{"flexible", "retail"}:      0.6,
	{"hybrid", "startup"}:       0.6,
	{"hybrid", "retail"}:        0.3,
	{"startup", "retail"}:       0.4,
}

// remotePolicies is directional: candidate preference, then job policy.
var remotePolicies = map[[2]string]float64{
	{"onsite", "hybrid"}: 0.7,
	{"onsite", "remote"}: 0.5,
	{"hybrid", "onsite"}: 0.5,
	{"hybrid", "remote"}: 0.8,
	{"remote", "hybrid"}: 0.6,
	{"remote", "onsite"}: 0.1,
}

var overtimeLevels = map[string]int{"none": 0, "occasional": 1, "frequent": 2}

type availability struct {
	deps Deps
	log  *zap.Logger
}

func newAvailability(deps Deps) *availability {
	return &availability{
		deps: deps,
		log:  logger.WithFields(deps.Logger, logger.CriterionFields(string(match.Availability), 0)...),
	}
}

func (a *availability) sealed() {}

func (a *availability) Criterion() match.Criterion { return match.Availability }

func (a *availability) Variant(in Input) []string {
	return []string{in.Now.UTC().Format("2006-01-02")}
}

func (a *availability) Status() Status {
	return Status{Name: string(match.Availability), Enabled: true}
}

func (a *availability) Evaluate(_ context.Context, in Input) (*match.CriterionResult, error) {
	return a.score(in), nil
}

func (a *availability) Fallback(in Input) *match.CriterionResult {
	res := a.score(in)
	res.Confidence = match.ConfidenceFallback
	return res
}

func (a *availability) score(in Input) *match.CriterionResult {
	res := newResult(match.Availability)
	res.Details["engine"] = "tables"

	avail, job := in.Candidate.Availability, in.Job
	if avail == nil {
		fill(res.SubScores, availabilityWeights, match.NeutralScore)
		res.Score = match.NeutralScore
		res.Confidence = match.ConfidenceDegraded
		res.Details["reason"] = "availability missing"
		return res
	}

	start, days := startAlignment(avail, job, in.Now)
	res.SubScores["start"] = start
	res.SubScores["schedule"] = pairScore(schedulePatterns, avail.WorkPattern, job.WorkPattern, unstated, 0.2)
	res.SubScores["remote"] = remoteMatch(avail.RemotePref, job.RemotePolicy)
	res.SubScores["travel"] = travelMatch(avail.MaxTravel, job.TravelPercent)
	res.SubScores["overtime"] = overtimeMatch(avail.Overtime, job.Overtime)
	res.Score = weighted(res.SubScores, availabilityWeights)
	res.Details["startOffsetDays"] = strconv.Itoa(int(days))

	a.log.Debug("availability evaluated", zap.Float64("start_offset_days", days))
	return res
}

// startAlignment scores the distance in days between the job start and the
// candidate's start window. The job start defaults to now.
func startAlignment(avail *profile.Availability, job *profile.Job, now time.Time) (float64, float64) {
	target := job.StartDate.Or(now)

	earliest := avail.EarliestStart.Or(now.AddDate(0, 0, 7*avail.NoticeWeeks))
	var offset time.Duration
	switch {
	case earliest.After(target):
		offset = earliest.Sub(target)
	case !avail.LatestStart.IsZero() && avail.LatestStart.Before(target):
		offset = target.Sub(avail.LatestStart.Time)
	}

	days := offset.Hours() / 24
	if days <= 0 {
		return 1, 0
	}
	for _, w := range startWindows {
		if days <= w.days {
			return w.score, days
		}
	}
	return 0.1, days
}

func remoteMatch(pref string, policy profile.RemotePolicy) float64 {
	if pref == "any" {
		return 1
	}
	if pref == "" || policy == "" {
		return unstated
	}
	if pref == string(policy) {
		return 1
	}
	if v, ok := remotePolicies[[2]string{pref, string(policy)}]; ok {
		return v
	}
	return 0.2
}

func travelMatch(maxTravel, required float64) float64 {
	if required <= maxTravel {
		return 1
	}
	return match.Clamp(1 - (required-maxTravel)/50)
}

func overtimeMatch(tolerance, expected string) float64 {
	want, ok := overtimeLevels[expected]
	if !ok {
		return 1
	}
	have, ok := overtimeLevels[tolerance]
	if !ok {
		return unstated
	}
	switch gap := want - have; {
	case gap <= 0:
		return 1
	case gap == 1:
		return 0.5
	default:
		return 0
	}
}
