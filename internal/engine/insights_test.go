package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-matcher/internal/match"
)

func result(c match.Criterion, score float64, conf match.Confidence, subs map[string]float64) match.WeightedResult {
	return match.WeightedResult{
		CriterionResult: &match.CriterionResult{Criterion: c, Score: score, Confidence: conf, SubScores: subs},
		Weight:          match.Weight(c),
	}
}

func TestBuildInsights(t *testing.T) {
	t.Parallel()

	s := &match.CompositeScore{
		QualityLevel: match.QualityGood,
		Breakdown: []match.WeightedResult{
			result(match.Semantic, 0.82, match.ConfidenceFull, map[string]float64{"titleMatch": 0.7, "skillsMatch": 0.9}),
			result(match.Commute, 0.75, match.ConfidenceFallback, map[string]float64{"duration": 0.8}),
			result(match.Experience, 0.45, match.ConfidenceFull, map[string]float64{"years": 0.2, "leadership": 0.5}),
			result(match.Cultural, 0.5, match.ConfidenceDegraded, map[string]float64{"values": 0.6, "team": 0.6}),
			result(match.Availability, 0.9, match.ConfidenceFull, nil),
		},
	}

	ins := buildInsights(s)

	assert.Equal(t, []string{
		"strong role and skills alignment (0.82)",
		"commute looks favourable (0.75, estimated)",
		"strong availability (0.90)",
	}, ins.Strengths)
	assert.Equal(t, []string{"weak experience (0.45)", "weak cultural fit (0.50)"}, ins.Weaknesses)
	assert.Equal(t, []string{
		"verify the commute estimate, it was computed with fallback confidence",
		"weigh the shortfall in relevant years against other strengths",
		// Equal sub-scores resolve by name.
		"introduce the candidate to the team structure",
		"verify the cultural fit estimate, it was computed with degraded confidence",
	}, ins.Recommendations)
	assert.Equal(t, nextSteps[match.QualityGood], ins.NextSteps)
}

func TestBuildInsightsLowConfidence(t *testing.T) {
	t.Parallel()

	s := &match.CompositeScore{QualityLevel: match.QualityPoor, LowConfidence: true}
	for _, c := range match.Criteria {
		s.Breakdown = append(s.Breakdown, match.WeightedResult{CriterionResult: match.Neutral(c), Weight: match.Weight(c)})
	}

	ins := buildInsights(s)
	assert.Empty(t, ins.Strengths)
	assert.Len(t, ins.Weaknesses, len(match.Criteria))
	assert.Contains(t, ins.Recommendations, "review the commute requirements")
	assert.Contains(t, ins.NextSteps, "complete the missing profile data and recompute")
	// The shared table is not modified by appends.
	assert.NotContains(t, nextSteps[match.QualityPoor], "complete the missing profile data and recompute")
}

func TestDecodeOptions(t *testing.T) {
	t.Parallel()

	evening := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     map[string]any
		want    Options
		wantErr bool
	}{
		{name: "defaults", raw: nil, want: DefaultOptions()},
		{
			name: "json values",
			raw:  map[string]any{"enableCaching": false, "maxResults": float64(3), "departureTime": "2025-06-02T18:00:00Z"},
			want: Options{EnableCaching: false, MaxResults: 3, DepartureTime: evening},
		},
		{
			name: "weakly typed",
			raw:  map[string]any{"maxResults": "5", "enableCaching": "true"},
			want: Options{EnableCaching: true, MaxResults: 5},
		},
		{name: "unknown key", raw: map[string]any{"weights": map[string]any{}}, wantErr: true},
		{name: "negative max results", raw: map[string]any{"maxResults": -1}, wantErr: true},
		{name: "bad time", raw: map[string]any{"departureTime": "tomorrow"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeOptions(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, match.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.EnableCaching, got.EnableCaching)
			assert.Equal(t, tt.want.MaxResults, got.MaxResults)
			assert.True(t, tt.want.DepartureTime.Equal(got.DepartureTime))
		})
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.timeoutFor(match.Semantic))
	assert.Equal(t, 200*time.Millisecond, cfg.timeoutFor(match.Cultural))
	assert.Equal(t, time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC), cfg.departureOn(now))

	cfg.Departure = "17:45"
	assert.Equal(t, time.Date(2025, 6, 2, 17, 45, 0, 0, time.UTC), cfg.departureOn(now))

	require.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Departure: "8.30"}.Validate())
	assert.Error(t, Config{CriteriaTimeouts: map[string]time.Duration{"salary": time.Second}}.Validate())
	assert.Error(t, Config{CriteriaTimeouts: map[string]time.Duration{"commute": 0}}.Validate())
	assert.Error(t, Config{MinCompleteness: 1.5}.Validate())
}
