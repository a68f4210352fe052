package match

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsSumToOne(t *testing.T) {
	t.Parallel()

	total := BonusWeight
	for _, c := range Criteria {
		total += Weight(c)
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Len(t, Criteria, 5)
}

func TestQualityFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  QualityLevel
	}{
		{score: 1.0, want: QualityExcellent},
		{score: 0.85, want: QualityExcellent},
		{score: 0.8499, want: QualityGood},
		{score: 0.70, want: QualityGood},
		{score: 0.55, want: QualityAcceptable},
		{score: 0.5499, want: QualityPoor},
		{score: 0, want: QualityPoor},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.score), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, QualityFor(tt.score))
		})
	}
}

func TestConfidenceWorse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConfidenceDegraded, ConfidenceFull.Worse(ConfidenceDegraded))
	assert.Equal(t, ConfidenceFallback, ConfidenceFallback.Worse(ConfidenceFull))
	assert.Equal(t, ConfidenceFull, ConfidenceFull.Worse(ConfidenceFull))
	assert.Greater(t, ConfidenceFull.Trust(), ConfidenceDegraded.Trust())
	assert.Greater(t, ConfidenceDegraded.Trust(), ConfidenceFallback.Trust())
}

func TestCriterionResultValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, (&CriterionResult{Criterion: Semantic, Score: 0.4}).Validate())

	for _, bad := range []float64{-0.1, 1.01, math.NaN(), math.Inf(1)} {
		err := (&CriterionResult{Criterion: Semantic, Score: bad}).Validate()
		assert.ErrorIs(t, err, ErrScoreOutOfRange)
	}
}

func TestInsufficientDataErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("compute: %w", &InsufficientDataError{Candidate: 0.1, Job: 0.5, Threshold: 0.3})
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	var target *InsufficientDataError
	require.True(t, errors.As(err, &target))
	assert.InDelta(t, 0.1, target.Candidate, 1e-9)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp(-1))
	assert.Equal(t, 1.0, Clamp(2))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 0.3, Clamp(0.3))
}
