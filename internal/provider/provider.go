// Package provider defines the external collaborators the criteria consult and
// the resilient wrappers placed in front of them.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/profile"
)

// ErrUnsupported marks requests a provider can never serve. Guards neither
// retry them nor count them against the circuit.
var ErrUnsupported = errors.New("not supported by provider")

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Similarity scores how close two text fragments are, in [0,1].
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
	// Name identifies the provider in logs and in the engines-used report.
	Name() string
}

// Route is a travel estimate between two points.
type Route struct {
	DurationMinutes float64 `json:"durationMinutes"`
	DistanceKm      float64 `json:"distanceKm"`
}

// Geo estimates travel between two points for a transport mode.
type Geo interface {
	Distance(ctx context.Context, from, to geo.Point, mode profile.TransportMode, departure time.Time) (Route, error)
	Name() string
}
