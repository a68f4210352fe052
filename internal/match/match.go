// Package match defines the result types shared by the criterion engines and the orchestrator.
package match

import (
	"fmt"
	"math"
	"time"
)

// Criterion names one of the five scoring dimensions.
type Criterion string

const (
	Semantic     Criterion = "semantic"
	Commute      Criterion = "commute"
	Experience   Criterion = "experience"
	Cultural     Criterion = "cultural"
	Availability Criterion = "availability"
)

// Criteria lists the closed set of criteria in aggregation order.
var Criteria = []Criterion{Semantic, Commute, Experience, Cultural, Availability}

// Fixed aggregation weights. The criterion weights plus BonusWeight sum to 1.0.
const (
	SemanticWeight     = 0.25
	CommuteWeight      = 0.20
	ExperienceWeight   = 0.20
	CulturalWeight     = 0.15
	AvailabilityWeight = 0.10
	BonusWeight        = 0.10
)

// Weight returns the aggregation weight of c, or 0 for unknown criteria.
func Weight(c Criterion) float64 {
	switch c {
	case Semantic:
		return SemanticWeight
	case Commute:
		return CommuteWeight
	case Experience:
		return ExperienceWeight
	case Cultural:
		return CulturalWeight
	case Availability:
		return AvailabilityWeight
	default:
		return 0
	}
}

// Valid reports whether c belongs to the closed set.
func (c Criterion) Valid() bool {
	return Weight(c) > 0
}

// Confidence describes how a criterion result was produced.
type Confidence string

const (
	ConfidenceFull     Confidence = "full"
	ConfidenceDegraded Confidence = "degraded"
	ConfidenceFallback Confidence = "fallback"
)

// Trust is the implicit weight used by insight generation and data quality.
// It never enters the aggregation formula.
func (c Confidence) Trust() float64 {
	switch c {
	case ConfidenceFull:
		return 1.0
	case ConfidenceDegraded:
		return 0.7
	default:
		return 0.4
	}
}

// Worse returns the lower of two confidence levels.
func (c Confidence) Worse(other Confidence) Confidence {
	if other.rank() > c.rank() {
		return other
	}
	return c
}

func (c Confidence) rank() int {
	switch c {
	case ConfidenceFull:
		return 0
	case ConfidenceDegraded:
		return 1
	default:
		return 2
	}
}

// CriterionResult is the outcome of a single criterion engine.
type CriterionResult struct {
	Criterion  Criterion          `json:"criterion"`
	Score      float64            `json:"score"`
	SubScores  map[string]float64 `json:"subBreakdown,omitempty"`
	Details    map[string]string  `json:"details,omitempty"`
	Confidence Confidence         `json:"confidence"`
	Latency    time.Duration      `json:"latency"`
	// CacheTier is the tier that served the result, 0 when computed.
	CacheTier int `json:"cacheTier,omitempty"`
}

// Validate checks that the score is a finite value inside [0,1].
func (r *CriterionResult) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrScoreOutOfRange)
	}
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) || r.Score < 0 || r.Score > 1 {
		return fmt.Errorf("%w: %s scored %v", ErrScoreOutOfRange, r.Criterion, r.Score)
	}
	return nil
}

// Neutral returns the substitute used when a criterion did not finish in time.
func Neutral(c Criterion) *CriterionResult {
	return &CriterionResult{
		Criterion:  c,
		Score:      NeutralScore,
		SubScores:  map[string]float64{},
		Details:    map[string]string{"reason": "not completed before the match deadline"},
		Confidence: ConfidenceFallback,
	}
}

// NeutralScore is substituted for unfinished criteria.
const NeutralScore = 0.5

// Clamp limits v to [0,1]. NaN collapses to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
