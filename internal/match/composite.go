package match

import "time"

// QualityLevel is the tier derived from the final score.
type QualityLevel string

const (
	QualityExcellent  QualityLevel = "excellent"
	QualityGood       QualityLevel = "good"
	QualityAcceptable QualityLevel = "acceptable"
	QualityPoor       QualityLevel = "poor"
)

// Quality thresholds applied to the final score.
const (
	ExcellentThreshold  = 0.85
	GoodThreshold       = 0.70
	AcceptableThreshold = 0.55
)

// QualityFor maps a final score to its quality level.
func QualityFor(score float64) QualityLevel {
	switch {
	case score >= ExcellentThreshold:
		return QualityExcellent
	case score >= GoodThreshold:
		return QualityGood
	case score >= AcceptableThreshold:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

// WeightedResult pairs a criterion result with the weight applied to it.
type WeightedResult struct {
	*CriterionResult
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Insights are the textual explanations attached to a composite score.
type Insights struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	NextSteps       []string `json:"nextSteps"`
}

// Performance carries request metadata.
type Performance struct {
	RequestID       string             `json:"requestId"`
	Timestamp       time.Time          `json:"timestamp"`
	CalculationTime time.Duration      `json:"-"`
	CalculationMs   float64            `json:"calculationTimeMs"`
	DataQuality     float64            `json:"dataQuality"`
	CacheHits       map[Criterion]bool `json:"cacheHit"`
	EnginesUsed     []string           `json:"enginesUsed"`
}

// CompositeScore is the explainable outcome of a match request.
type CompositeScore struct {
	CandidateID     string                        `json:"candidateId"`
	JobID           string                        `json:"jobId"`
	FinalScore      float64                       `json:"finalScore"`
	QualityLevel    QualityLevel                  `json:"qualityLevel"`
	Breakdown       []WeightedResult              `json:"-"`
	BonusAdjustment float64                       `json:"bonusAdjustment"`
	Insights        Insights                      `json:"insights"`
	Performance     Performance                   `json:"performance"`
	LowConfidence   bool                          `json:"lowConfidence"`
	Warnings        []string                      `json:"warnings,omitempty"`
	CriteriaByName  map[Criterion]*WeightedResult `json:"criteriaBreakdown"`
}

// Result returns the breakdown entry for c.
func (s *CompositeScore) Result(c Criterion) *CriterionResult {
	for _, r := range s.Breakdown {
		if r.Criterion == c {
			return r.CriterionResult
		}
	}
	return nil
}

// Fallbacks returns the criteria flagged with fallback confidence.
func (s *CompositeScore) Fallbacks() []Criterion {
	var out []Criterion
	for _, r := range s.Breakdown {
		if r.Confidence == ConfidenceFallback {
			out = append(out, r.Criterion)
		}
	}
	return out
}
