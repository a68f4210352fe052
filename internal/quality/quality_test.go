package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
)

func fullCandidate() *profile.Candidate {
	return &profile.Candidate{
		ID:             "c",
		Skills:         []profile.Skill{{Name: "budgeting"}},
		Positions:      []profile.Position{{Title: "Office Manager"}},
		Education:      []profile.Education{{Degree: "BA"}},
		Home:           profile.Location{Point: &geo.Point{Lat: 1, Lon: 2}, Address: "Main st"},
		PreferredModes: []profile.TransportMode{profile.Transit},
		Availability:   &profile.Availability{},
		Personality:    &profile.Personality{},
	}
}

func TestCompleteness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate *profile.Candidate
		job       *profile.Job
		wantCand  float64
		wantJob   float64
		missing   []string
	}{
		{
			name:      "full candidate, title only job",
			candidate: fullCandidate(),
			job:       &profile.Job{ID: "j", Title: "Clerk"},
			wantCand:  1,
			wantJob:   1.0 / 12,
		},
		{
			name:      "empty candidate",
			candidate: &profile.Candidate{ID: "c"},
			job: &profile.Job{
				ID: "j", Title: "Clerk", Industry: "retail", RemotePolicy: profile.RemoteHybrid,
				Location: profile.Location{Address: "Main st"},
			},
			wantCand: 0,
			wantJob:  4.0 / 12,
			missing:  []string{"candidate.skills", "candidate.personality", "job.compensation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Completeness(tt.candidate, tt.job)
			assert.InDelta(t, tt.wantCand, r.Candidate, 1e-9)
			assert.InDelta(t, tt.wantJob, r.Job, 1e-9)
			for _, m := range tt.missing {
				assert.Contains(t, r.Missing, m)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	_, err := Check(fullCandidate(), &profile.Job{ID: "j", Title: "Clerk"}, DefaultThreshold)
	require.Error(t, err)
	assert.ErrorIs(t, err, match.ErrInsufficientData)

	var insufficient *match.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1.0, insufficient.Candidate)
	assert.Equal(t, DefaultThreshold, insufficient.Threshold)

	job := &profile.Job{
		ID: "j", Title: "Clerk", Industry: "retail", Seniority: profile.SeniorityEntry,
		RequiredSkills: []string{"budgeting"},
	}
	r, err := Check(fullCandidate(), job, 0)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/12, r.Job, 1e-9)
}

func breakdown(confidences ...match.Confidence) []match.WeightedResult {
	out := make([]match.WeightedResult, len(confidences))
	for i, c := range confidences {
		out[i] = match.WeightedResult{CriterionResult: &match.CriterionResult{
			Criterion:  match.Criteria[i],
			Score:      0.7,
			Confidence: c,
		}}
	}
	return out
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	full, degraded, fallback := match.ConfidenceFull, match.ConfidenceDegraded, match.ConfidenceFallback

	tests := []struct {
		name        string
		confidences []match.Confidence
		report      Report
		wantQuality float64
		wantLow     bool
	}{
		{
			name:        "all full and complete",
			confidences: []match.Confidence{full, full, full, full, full},
			report:      Report{Candidate: 1, Job: 1},
			wantQuality: 1,
		},
		{
			name:        "one fallback",
			confidences: []match.Confidence{full, fallback, full, degraded, full},
			report:      Report{Candidate: 1, Job: 0.5},
			wantQuality: 0.5*0.75 + 0.5*(1+0.4+1+0.7+1)/5,
		},
		{
			name:        "two fallbacks flag the result",
			confidences: []match.Confidence{fallback, fallback, full, full, full},
			report:      Report{Candidate: 1, Job: 1},
			wantQuality: 0.5 + 0.5*(0.4+0.4+3)/5,
			wantLow:     true,
		},
		{
			name:        "sparse inputs flag the result",
			confidences: []match.Confidence{degraded, degraded, degraded, degraded, degraded},
			report:      Report{Candidate: 0.3, Job: 0.2, Missing: []string{"job.title"}},
			wantQuality: 0.5*0.25 + 0.5*0.7,
			wantLow:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &match.CompositeScore{Breakdown: breakdown(tt.confidences...)}
			Annotate(s, tt.report)
			assert.InDelta(t, tt.wantQuality, s.Performance.DataQuality, 1e-9)
			assert.Equal(t, tt.wantLow, s.LowConfidence)
			if tt.wantLow {
				assert.NotEmpty(t, s.Warnings)
			}
		})
	}
}
