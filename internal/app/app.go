// Package app assembles the lectio components from a configuration.
package app

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
	"github.com/FocuswithJustin/lectio/internal/config"
	"github.com/FocuswithJustin/lectio/internal/logging"
	"github.com/FocuswithJustin/lectio/internal/metrics"
	"github.com/FocuswithJustin/lectio/internal/plan"
	"github.com/FocuswithJustin/lectio/internal/provider"
	"github.com/FocuswithJustin/lectio/internal/resolver"
	"github.com/FocuswithJustin/lectio/internal/snapshot"
	"github.com/FocuswithJustin/lectio/internal/store"
)

// App holds the shared components. Build one with New and release it with Close.
type App struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Store    store.Backend
	Cache    *cache.Tiered
	Chain    *provider.Chain
	Resolver *resolver.Service

	// Plan is nil when no plan file is configured.
	Plan *plan.Plan
}

// New opens the store, builds the provider chain and loads the plan.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := version.NewNormalizer(cfg.DefaultVersion)
	if err != nil {
		return nil, err
	}

	var p *plan.Plan
	if cfg.PlanFile != "" {
		if p, err = plan.Load(cfg.PlanFile); err != nil {
			return nil, err
		}
	}

	backend, err := store.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	tiered := cache.NewTiered(cache.Options{
		Store:        backend,
		WriteWorkers: cfg.Cache.WriteWorkers,
		WriteTimeout: cfg.Cache.WriteTimeout.Duration(),
		Metrics:      m,
	})
	chain := provider.NewChain(provider.ChainOptions{
		Timeout: cfg.Providers.Timeout.Duration(),
		Metrics: m,
	}, Providers(cfg, nil)...)

	a := &App{
		Config:  cfg,
		Metrics: m,
		Store:   backend,
		Cache:   tiered,
		Chain:   chain,
		Resolver: resolver.New(resolver.Options{
			Normalizer: normalizer,
			Cache:      tiered,
			Chain:      chain,
			Workers:    cfg.Resolver.Workers,
			Metrics:    m,
		}),
		Plan: p,
	}

	names := make([]string, 0, len(chain.Providers()))
	for _, d := range chain.Providers() {
		names = append(names, d.Name)
	}
	logging.Info("lectio ready",
		"default_version", string(normalizer.Default),
		"cache_backend", backend.Name(),
		"providers", names,
		"plan_days", a.planDays())
	return a, nil
}

func (a *App) planDays() int {
	if a.Plan == nil {
		return 0
	}
	return a.Plan.Len()
}

// Providers builds the enabled adapters in the configured order. client may
// be nil to use the default HTTP client.
func Providers(cfg *config.Config, client *http.Client) []provider.Provider {
	pc := cfg.Providers
	opts := func(p config.ProviderConfig) provider.Options {
		return provider.Options{
			BaseURL: p.BaseURL,
			Key:     p.Key,
			Timeout: p.Timeout.Duration(),
			Client:  client,
		}
	}

	var out []provider.Provider
	for _, name := range pc.Order {
		switch name {
		case config.ProviderABibliaDigital:
			if pc.ABibliaDigital.IsEnabled() {
				out = append(out, provider.NewABibliaDigital(opts(pc.ABibliaDigital)))
			}
		case config.ProviderBibleAPI:
			if pc.BibleAPI.IsEnabled() {
				out = append(out, provider.NewBibleAPI(opts(pc.BibleAPI)))
			}
		case config.ProviderOSIS:
			if pc.OSIS.IsEnabled() && pc.OSIS.BaseURL != "" {
				out = append(out, provider.NewOSIS(opts(pc.OSIS)))
			}
		case config.ProviderAPIBible:
			if !pc.APIBible.IsEnabled() || pc.APIBible.Key == "" {
				continue
			}
			bibles := make(map[version.Code]string, len(provider.DefaultBibles)+len(pc.APIBible.Bibles))
			for v, id := range provider.DefaultBibles {
				bibles[v] = id
			}
			for v, id := range pc.APIBible.Bibles {
				if code, ok := version.Lookup(v); ok {
					bibles[code] = id
				}
			}
			fallback, _ := version.Lookup(pc.APIBible.Fallback)
			out = append(out, provider.NewAPIBible(provider.APIBibleOptions{
				Options:  opts(pc.APIBible.ProviderConfig),
				Bibles:   bibles,
				Fallback: fallback,
			}))
		}
	}
	return out
}

// WarmOptions returns the configured pacing for a warm run of v.
func (a *App) WarmOptions(v string) plan.WarmOptions {
	w := a.Config.Warm
	opts := plan.WarmOptions{
		ChunkSize: w.ChunkSize,
		Pause:     w.Pause.Duration(),
		Version:   v,
		Metrics:   a.Metrics,
	}
	if opts.Pause == 0 {
		opts.Pause = -1
	}
	if w.RatePerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(w.RatePerSecond), 1)
	}
	return opts
}

// SnapshotOptions returns the configured snapshot limits.
func (a *App) SnapshotOptions() snapshot.Options {
	return snapshot.Options{
		MaxBytes: a.Config.Cache.MaxSnapshot.Int64(),
		Backend:  a.Store.Name(),
	}
}

// Close drains pending cache writes and closes the store.
func (a *App) Close() error {
	a.Cache.Close()
	return a.Store.Close()
}
