// Package quality checks input completeness and annotates composite scores
// with a data quality metric.
package quality

import (
	"fmt"
	"strings"

	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
)

// DefaultThreshold is the minimum share of expected fields an input must populate.
const DefaultThreshold = 0.30

// LowQuality is the data quality below which a result is flagged.
const LowQuality = 0.5

// maxFallbacks is the number of fallback criteria that flags a result.
const maxFallbacks = 2

// Report is the completeness of both inputs.
type Report struct {
	Candidate float64
	Job       float64
	// Missing lists absent fields, prefixed by "candidate." or "job.".
	Missing []string
}

type field struct {
	name    string
	present bool
}

func candidateFields(c *profile.Candidate) []field {
	return []field{
		{"skills", len(c.Skills) > 0},
		{"positions", len(c.Positions) > 0},
		{"education", len(c.Education) > 0},
		{"home.coordinates", c.Home.HasPoint()},
		{"home.address", strings.TrimSpace(c.Home.Address) != ""},
		{"preferredModes", len(c.PreferredModes) > 0},
		{"availability", c.Availability != nil},
		{"personality", c.Personality != nil},
	}
}

func jobFields(j *profile.Job) []field {
	return []field{
		{"title", strings.TrimSpace(j.Title) != ""},
		{"industry", strings.TrimSpace(j.Industry) != ""},
		{"requiredSkills", len(j.RequiredSkills) > 0},
		{"desiredSkills", len(j.DesiredSkills) > 0},
		{"responsibilities", strings.TrimSpace(j.Responsibilities) != ""},
		{"seniority", j.Seniority != ""},
		{"location", j.Location.HasPoint() || strings.TrimSpace(j.Location.Address) != ""},
		{"accessibleModes", len(j.AccessibleModes) > 0},
		{"compensation", j.Compensation != nil},
		{"contractType", strings.TrimSpace(j.ContractType) != ""},
		{"startDate", !j.StartDate.IsZero()},
		{"remotePolicy", j.RemotePolicy != ""},
	}
}

func ratio(prefix string, fields []field, missing *[]string) float64 {
	present := 0
	for _, f := range fields {
		if f.present {
			present++
			continue
		}
		*missing = append(*missing, prefix+f.name)
	}
	return float64(present) / float64(len(fields))
}

// Completeness measures how many expected fields each input populates.
func Completeness(c *profile.Candidate, j *profile.Job) Report {
	var r Report
	r.Candidate = ratio("candidate.", candidateFields(c), &r.Missing)
	r.Job = ratio("job.", jobFields(j), &r.Missing)
	return r
}

// Check fails with *match.InsufficientDataError when either input is below threshold.
func Check(c *profile.Candidate, j *profile.Job, threshold float64) (Report, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	r := Completeness(c, j)
	if r.Candidate < threshold || r.Job < threshold {
		return r, &match.InsufficientDataError{Candidate: r.Candidate, Job: r.Job, Threshold: threshold}
	}
	return r, nil
}

// Annotate sets DataQuality, LowConfidence and warnings on s.
func Annotate(s *match.CompositeScore, r Report) {
	trust := 0.0
	for _, res := range s.Breakdown {
		trust += res.Confidence.Trust()
	}
	if n := len(s.Breakdown); n > 0 {
		trust /= float64(n)
	}

	completeness := (r.Candidate + r.Job) / 2
	s.Performance.DataQuality = 0.5*completeness + 0.5*trust

	fallbacks := s.Fallbacks()
	if len(fallbacks) > 0 {
		names := make([]string, len(fallbacks))
		for i, c := range fallbacks {
			names[i] = string(c)
		}
		s.Warnings = append(s.Warnings, fmt.Sprintf("estimated without external providers: %s", strings.Join(names, ", ")))
	}
	if completeness < 0.6 && len(r.Missing) > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("incomplete profiles, missing %s", strings.Join(r.Missing, ", ")))
	}

	s.LowConfidence = len(fallbacks) >= maxFallbacks || s.Performance.DataQuality < LowQuality
	if s.LowConfidence {
		s.Warnings = append(s.Warnings, fmt.Sprintf("low confidence result, data quality %.2f", s.Performance.DataQuality))
	}
}
