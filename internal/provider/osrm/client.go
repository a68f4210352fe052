// Package osrm implements the Geo provider on top of the OSRM route service.
package osrm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/provider"
)

const (
	defaultURL = "https://router.project-osrm.org"
	userAgent  = "spigell/hh-matcher"

	ProviderName = "osrm"
)

// ErrModeUnsupported is returned for modes the routing service cannot serve.
var ErrModeUnsupported = fmt.Errorf("transport mode is not supported by osrm: %w", provider.ErrUnsupported)

var profiles = map[profile.TransportMode]string{
	profile.Driving: "driving",
	profile.Cycling: "bike",
	profile.Walking: "foot",
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(log *zap.Logger, baseURL, agent string, timeout time.Duration) *Client {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = defaultURL
	}
	if agent = strings.TrimSpace(agent); agent == "" {
		agent = userAgent
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		logger:     logger.WithProvider(log, ProviderName, "route"),
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  agent,
		BaseURL:    baseURL,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// Distance asks OSRM for the fastest route. Departure time is not used by the
// service; traffic is accounted for by the caller.
func (c *Client) Distance(ctx context.Context, from, to geo.Point, mode profile.TransportMode, _ time.Time) (provider.Route, error) {
	name, ok := profiles[mode]
	if !ok {
		return provider.Route{}, fmt.Errorf("%w: %s", ErrModeUnsupported, mode)
	}

	apiURL := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f",
		c.BaseURL, name, from.Lon, from.Lat, to.Lon, to.Lat)

	var resp routeResponse
	if err := c.getJSON(ctx, apiURL, overview(), &resp); err != nil {
		return provider.Route{}, err
	}

	if resp.Code != "Ok" {
		return provider.Route{}, fmt.Errorf("osrm returned %s: %s", resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return provider.Route{}, errors.New("osrm returned no routes")
	}

	best := resp.Routes[0]
	c.logger.Debug("got route from osrm",
		zap.String("mode", string(mode)),
		zap.Float64("duration_s", best.Duration),
		zap.Float64("distance_m", best.Distance),
	)

	return provider.Route{
		DurationMinutes: best.Duration / 60,
		DistanceKm:      best.Distance / 1000,
	}, nil
}
