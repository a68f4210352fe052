package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/criteria"
	"github.com/spigell/hh-matcher/internal/dictionary"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/provider"
	"github.com/spigell/hh-matcher/internal/provider/gemini"
	"github.com/spigell/hh-matcher/internal/provider/osrm"
	"github.com/spigell/hh-matcher/internal/secrets"
)

// newDeps builds the criterion dependencies. The returned manager may be nil.
func newDeps(ctx context.Context, config *Config, logger *zap.Logger) (criteria.Deps, error) {
	deps := criteria.Deps{Logger: logger}

	dict, err := newDictionary(config.Dictionary)
	if err != nil {
		return deps, err
	}
	deps.Dictionary = dict

	sim, err := newSimilarity(ctx, config.Similarity, config.Resilience, logger)
	if err != nil {
		return deps, err
	}
	if sim != nil {
		deps.Similarity = sim
	}

	g, err := newGeo(config.Geo, config.Resilience, logger)
	if err != nil {
		return deps, err
	}
	if g != nil {
		deps.Geo = g
	}

	deps.Cache = newCache(ctx, config.Cache, logger)
	return deps, nil
}

func newDictionary(path string) (*dictionary.Dictionary, error) {
	if path = strings.TrimSpace(path); path == "" {
		return dictionary.Default(), nil
	}
	dict, err := dictionary.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary %q: %w", path, err)
	}
	return dict, nil
}

// newSimilarity returns nil for the local provider so that the semantic
// criterion reports its estimates as fallback.
func newSimilarity(ctx context.Context, cfg SimilarityConfig, guard provider.GuardConfig, logger *zap.Logger) (*provider.ResilientSimilarity, error) {
	switch p := strings.TrimSpace(strings.ToLower(cfg.Provider)); p {
	case "", "local":
		return nil, nil
	case gemini.ProviderName:
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("similarity.gemini section is required for the gemini provider")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or similarity.gemini.api-key-file)", err)
		}

		client, err := gemini.NewClient(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.EmbeddingModel)
		if err != nil {
			return nil, err
		}

		genLogger := logger.With(
			zap.String("provider", gemini.ProviderName),
			zap.String("model", client.Model()),
			zap.Int("retry_attempts", guard.Retry.MaxAttempts),
		)

		sim, err := gemini.NewSimilarity(client, cfg.Gemini.Mode, genLogger, cfg.Gemini.MaxLogLength)
		if err != nil {
			return nil, err
		}
		return provider.NewResilientSimilarity(sim, guard, time.Now, logger), nil
	default:
		return nil, fmt.Errorf("unsupported similarity provider: %s", cfg.Provider)
	}
}

// newGeo returns nil for the local provider; the commute criterion then
// estimates routes from straight-line distance.
func newGeo(cfg GeoConfig, guard provider.GuardConfig, logger *zap.Logger) (*provider.ResilientGeo, error) {
	switch p := strings.TrimSpace(strings.ToLower(cfg.Provider)); p {
	case "", "local":
		return nil, nil
	case osrm.ProviderName:
		o := cfg.OSRM
		if o == nil {
			o = &OSRMConfig{}
		}
		client := osrm.New(logger, o.URL, o.UserAgent, o.Timeout)
		return provider.NewResilientGeo(client, guard, time.Now, logger), nil
	default:
		return nil, fmt.Errorf("unsupported geo provider: %s", cfg.Provider)
	}
}

// newCache opens the configured backend. Failures disable caching for the run.
func newCache(ctx context.Context, cfg cache.Config, logger *zap.Logger) *cache.Manager {
	password, err := secrets.LoadOptional(secrets.Source{
		Name:  "redis password",
		Value: cfg.Redis.Password,
		File:  cfg.Redis.PasswordFile,
		Env:   "MATCHER_REDIS_PASSWORD",
	})
	if err != nil {
		logger.Warn("continuing without cache", zap.Error(err))
		return nil
	}
	cfg.Redis.Password = password

	backend, err := cache.Open(ctx, cfg, time.Now)
	if err != nil {
		logger.Warn("continuing without cache", zap.Error(fmt.Errorf("%w: %v", match.ErrCacheUnavailable, err)))
		return nil
	}
	if backend == nil {
		logger.Debug("cache disabled", zap.String("backend", cfg.Backend))
		return nil
	}

	return cache.NewManager(backend, cfg, time.Now, logger)
}
