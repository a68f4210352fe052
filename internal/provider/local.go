package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/textsim"
)

const (
	LocalSimilarityName = "local-estimator"
	LocalGeoName        = "haversine"
)

// DetourFactor converts straight-line distance into an approximate road distance.
const DetourFactor = 1.5

// Average speeds in km/h used by the straight-line estimate.
var modeSpeeds = map[profile.TransportMode]float64{
	profile.Driving: 30,
	profile.Transit: 25,
	profile.Cycling: 15,
	profile.Walking: 5,
}

// LocalSimilarity blends token overlap and edit distance. It never fails.
type LocalSimilarity struct{}

func (LocalSimilarity) Similarity(_ context.Context, a, b string) (float64, error) {
	return textsim.Estimate(a, b), nil
}

func (LocalSimilarity) Name() string {
	return LocalSimilarityName
}

// LocalGeo estimates routes from the great-circle distance.
type LocalGeo struct{}

func (LocalGeo) Distance(_ context.Context, from, to geo.Point, mode profile.TransportMode, _ time.Time) (Route, error) {
	return EstimateRoute(from, to, mode)
}

func (LocalGeo) Name() string {
	return LocalGeoName
}

// EstimateRoute returns haversine km × DetourFactor travelled at the mode's average speed.
func EstimateRoute(from, to geo.Point, mode profile.TransportMode) (Route, error) {
	speed, ok := modeSpeeds[mode]
	if !ok {
		return Route{}, fmt.Errorf("unknown transport mode %q", mode)
	}

	km := geo.Haversine(from, to) * DetourFactor
	return Route{
		DurationMinutes: km / speed * 60,
		DistanceKm:      km,
	}, nil
}
