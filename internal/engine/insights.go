package engine

import (
	"fmt"
	"sort"

	"github.com/spigell/hh-matcher/internal/match"
)

// InsightThreshold separates strengths from weaknesses.
const InsightThreshold = 0.6

var labels = map[match.Criterion]string{
	match.Semantic:     "role and skills alignment",
	match.Commute:      "commute",
	match.Experience:   "experience",
	match.Cultural:     "cultural fit",
	match.Availability: "availability",
}

// advice maps a criterion's weakest sub-score to a recommendation.
var advice = map[match.Criterion]map[string]string{
	match.Semantic: {
		"titleMatch":            "show how previous roles map to this job title",
		"skillsMatch":           "close the gap on the required skills or evidence equivalents",
		"responsibilitiesMatch": "describe past responsibilities closer to the ones of this role",
	},
	match.Commute: {
		"duration":   "discuss remote days or relocation to shorten the commute",
		"ease":       "check whether an easier transport mode is available",
		"cost":       "clarify commuting cost support",
		"preference": "confirm the candidate accepts the available transport modes",
	},
	match.Experience: {
		"years":       "weigh the shortfall in relevant years against other strengths",
		"progression": "explore the candidate's readiness for this seniority level",
		"transfer":    "assess how the industry background transfers to this role",
		"leadership":  "probe leadership scope with concrete examples",
		"skills":      "verify the required skills were used in recent positions",
	},
	match.Cultural: {
		"values":        "discuss the company values early in the process",
		"workStyle":     "clarify the expected work style",
		"team":          "introduce the candidate to the team structure",
		"communication": "align on communication expectations",
		"adaptability":  "assess comfort with the pace of change",
	},
	match.Availability: {
		"start":    "negotiate the start date",
		"schedule": "agree on the working schedule",
		"remote":   "agree on the remote work arrangement",
		"travel":   "discuss the travel requirements",
		"overtime": "set expectations about overtime",
	},
}

var nextSteps = map[match.QualityLevel][]string{
	match.QualityExcellent: {
		"schedule an interview",
		"prepare an offer range",
	},
	match.QualityGood: {
		"schedule a screening call",
		"cover the weaker areas during the interview",
	},
	match.QualityAcceptable: {
		"run a focused assessment before deciding",
		"compare with other candidates for this job",
	},
	match.QualityPoor: {
		"do not prioritise this match",
		"keep the profile for better suited openings",
	},
}

func buildInsights(s *match.CompositeScore) match.Insights {
	ins := match.Insights{
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		NextSteps:       append([]string(nil), nextSteps[s.QualityLevel]...),
	}

	for _, r := range s.Breakdown {
		label := labels[r.Criterion]
		tentative := r.Confidence != match.ConfidenceFull

		if r.Score >= InsightThreshold {
			if tentative {
				ins.Strengths = append(ins.Strengths, fmt.Sprintf("%s looks favourable (%.2f, estimated)", label, r.Score))
			} else {
				ins.Strengths = append(ins.Strengths, fmt.Sprintf("strong %s (%.2f)", label, r.Score))
			}
		} else {
			ins.Weaknesses = append(ins.Weaknesses, fmt.Sprintf("weak %s (%.2f)", label, r.Score))
			if rec := recommend(r.CriterionResult); rec != "" {
				ins.Recommendations = append(ins.Recommendations, rec)
			}
		}

		if tentative {
			ins.Recommendations = append(ins.Recommendations,
				fmt.Sprintf("verify the %s estimate, it was computed with %s confidence", label, r.Confidence))
		}
	}

	if s.LowConfidence {
		ins.NextSteps = append(ins.NextSteps, "complete the missing profile data and recompute")
	}
	return ins
}

// recommend returns the advice for the lowest sub-score of r.
func recommend(r *match.CriterionResult) string {
	if len(r.SubScores) == 0 {
		return fmt.Sprintf("review the %s requirements", labels[r.Criterion])
	}

	names := make([]string, 0, len(r.SubScores))
	for name := range r.SubScores {
		names = append(names, name)
	}
	sort.Strings(names)

	lowest := names[0]
	for _, name := range names[1:] {
		if r.SubScores[name] < r.SubScores[lowest] {
			lowest = name
		}
	}

	if text, ok := advice[r.Criterion][lowest]; ok {
		return text
	}
	return fmt.Sprintf("review the %s requirements", labels[r.Criterion])
}
