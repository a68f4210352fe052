package engine

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-matcher/internal/match"
)

// Options are the per-request knobs carried in the request document.
type Options struct {
	EnableCaching bool `mapstructure:"enableCaching"`
	// MaxResults truncates rankings. Zero keeps every result.
	MaxResults int `mapstructure:"maxResults"`
	// DepartureTime overrides the configured commute departure.
	DepartureTime time.Time `mapstructure:"departureTime"`
}

func DefaultOptions() Options {
	return Options{EnableCaching: true}
}

// DecodeOptions decodes a free-form options object over the defaults.
// Unknown keys are rejected.
func DecodeOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	if len(raw) == 0 {
		return opts, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return opts, err
	}

	if err := dec.Decode(raw); err != nil {
		return opts, fmt.Errorf("%w: options: %v", match.ErrInvalidInput, err)
	}
	if opts.MaxResults < 0 {
		return opts, fmt.Errorf("%w: options: maxResults must not be negative", match.ErrInvalidInput)
	}

	return opts, nil
}
