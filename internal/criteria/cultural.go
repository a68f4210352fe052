package criteria

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
)

// Cultural sub-score weights.
const (
	ValuesWeight        = 0.30
	WorkStyleWeight     = 0.25
	TeamWeight          = 0.20
	CommunicationWeight = 0.15
	AdaptabilityWeight  = 0.10

	// CulturalNeutral is returned when either side of the comparison is unknown.
	CulturalNeutral = 0.6
)

var culturalWeights = []subWeight{
	{"values", ValuesWeight},
	{"workStyle", WorkStyleWeight},
	{"team", TeamWeight},
	{"communication", CommunicationWeight},
	{"adaptability", AdaptabilityWeight},
}

// Unlisted pairs of known values score the table's mismatch value.
var workStyleTable = map[[2]string]float64{
	{"collaborative", "flexible"}:    0.7,
	{"collaborative", "structured"}:  0.6,
	{"independent", "flexible"}:      0.8,
	{"independent", "results"}:       0.8,
	{"structured", "results"}:        0.6,
	{"flexible", "results"}:          0.7,
	{"fast-paced", "flexible"}:       0.7,
	{"fast-paced", "results"}:        0.8,
	{"fast-paced", "structured"}:     0.3,
	{"collaborative", "independent"}: 0.4,
}

var teamTable = map[[2]string]float64{
	{"collaborative", "cross-functional"}: 0.8,
	{"collaborative", "flat"}:             0.8,
	{"independent", "flat"}:               0.6,
	{"independent", "hierarchical"}:       0.4,
	{"collaborative", "hierarchical"}:     0.5,
	{"cross-functional", "flat"}:          0.7,
	{"cross-functional", "hierarchical"}:  0.4,
}

var communicationTable = map[[2]string]float64{
	{"direct", "informal"}:     0.7,
	{"direct", "formal"}:       0.6,
	{"diplomatic", "formal"}:   0.8,
	{"diplomatic", "informal"}: 0.6,
	{"direct", "diplomatic"}:   0.4,
	{"formal", "informal"}:     0.3,
	{"written", "formal"}:      0.7,
	{"verbal", "informal"}:     0.7,
}

// paceDemand is the adaptability a change pace asks for.
var paceDemand = map[string]float64{
	"stable":   0.3,
	"moderate": 0.6,
	"fast":     0.9,
}

type cultural struct {
	deps Deps
	log  *zap.Logger
}

func newCultural(deps Deps) *cultural {
	return &cultural{
		deps: deps,
		log:  logger.WithFields(deps.Logger, logger.CriterionFields(string(match.Cultural), 0)...),
	}
}

func (c *cultural) sealed() {}

func (c *cultural) Criterion() match.Criterion { return match.Cultural }

func (c *cultural) Variant(Input) []string { return nil }

func (c *cultural) Status() Status {
	return Status{Name: string(match.Cultural), Enabled: true}
}

func (c *cultural) Evaluate(_ context.Context, in Input) (*match.CriterionResult, error) {
	return c.score(in), nil
}

func (c *cultural) Fallback(in Input) *match.CriterionResult {
	res := c.score(in)
	res.Confidence = match.ConfidenceFallback
	return res
}

func (c *cultural) score(in Input) *match.CriterionResult {
	res := newResult(match.Cultural)
	res.Details["engine"] = "tables"

	culture := profile.CultureFor(in.Job, in.Company)
	person := in.Candidate.Personality
	if culture == nil || person == nil {
		fill(res.SubScores, culturalWeights, CulturalNeutral)
		res.Score = CulturalNeutral
		res.Confidence = match.ConfidenceDegraded
		if culture == nil {
			res.Details["reason"] = "culture profile missing"
		} else {
			res.Details["reason"] = "personality signals missing"
		}
		c.log.Debug("cultural fit estimated", zap.String("reason", res.Details["reason"]))
		return res
	}

	res.SubScores["values"] = c.values(person.Values, culture.Values)
	res.SubScores["workStyle"] = pairScore(workStyleTable, person.WorkStyle, culture.WorkStyle, CulturalNeutral, 0.2)
	res.SubScores["team"] = pairScore(teamTable, person.TeamPref, culture.TeamDynamics, CulturalNeutral, 0.2)
	res.SubScores["communication"] = pairScore(communicationTable, person.Communication, culture.Communication, CulturalNeutral, 0.2)
	res.SubScores["adaptability"] = adaptability(person.Adaptability, culture.ChangePace)
	res.Score = weighted(res.SubScores, culturalWeights)
	return res
}

// values is the share of company values the candidate shares.
func (c *cultural) values(person, company []string) float64 {
	if len(person) == 0 || len(company) == 0 {
		return CulturalNeutral
	}

	dict := c.deps.Dictionary
	have := make(map[string]struct{}, len(person))
	for _, v := range person {
		have[dict.Canonical(v)] = struct{}{}
	}

	shared := 0
	for _, v := range company {
		if _, ok := have[dict.Canonical(v)]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(company))
}

// adaptability penalises candidates below the adaptability the change pace asks for.
func adaptability(level float64, pace string) float64 {
	demand, ok := paceDemand[pace]
	if !ok {
		return CulturalNeutral
	}
	return match.Clamp(1 - 1.5*math.Max(0, demand-level))
}
