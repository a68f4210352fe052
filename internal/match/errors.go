package match

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed candidate or job records.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData is returned when inputs fail the completeness check.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrProviderTimeout marks an external provider call that exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrProviderUnavailable marks a provider whose circuit breaker is open.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrCacheUnavailable marks an unreachable cache backing store.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrScoreOutOfRange marks a criterion that produced a score outside [0,1].
	ErrScoreOutOfRange = errors.New("score out of range")
)

// InsufficientDataError reports the completeness ratios that failed the threshold.
type InsufficientDataError struct {
	Candidate float64
	Job       float64
	Threshold float64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: candidate completeness %.2f, job completeness %.2f, required %.2f",
		e.Candidate, e.Job, e.Threshold)
}

// Is makes InsufficientDataError match ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
