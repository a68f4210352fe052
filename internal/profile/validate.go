package profile

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/hh-matcher/internal/match"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks structural constraints on the candidate.
func (c *Candidate) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: candidate is required", match.ErrInvalidInput)
	}
	return check("candidate", c)
}

func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: job is required", match.ErrInvalidInput)
	}
	return check("job", j)
}

func (c *Company) Validate() error {
	if c == nil {
		return nil
	}
	return check("company", c)
}

func check(kind string, v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s: %v", match.ErrInvalidInput, kind, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", match.ErrInvalidInput, strings.Join(msgs, "; "))
}
