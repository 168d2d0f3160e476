// Package app assembles the engine, the game book and storage from the
// configuration. Every command starts from an App.
package app

import (
	"io"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/config"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/logging"
	"github.com/hailam/algchess/internal/storage"
)

// Options adjusts how an App is opened.
type Options struct {
	Service   string    // logged as "service"
	LogOutput io.Writer // defaults to stderr
	NoStorage bool      // skip the database even when enabled in config
	NoCache   bool      // do not read or write cached results
}

// App is the set of shared components.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Book     *book.Book
	Engine   *engine.Engine
	Storage  *storage.Storage // nil when disabled
	Registry *prometheus.Registry
}

// Open builds the components described by cfg.
func Open(cfg *config.Config, opts Options) (*App, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.Log.JSON,
		Service: opts.Service,
		Output:  opts.LogOutput,
	})

	a := &App{Config: cfg, Log: log, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.Book = book.Default()
	if cfg.Book.File != "" {
		extra, err := book.LoadFile(cfg.Book.File)
		if err != nil {
			return nil, errors.Wrap(err, "load games")
		}
		a.Book.Merge(extra)
	}

	if cfg.Storage.Enabled && !opts.NoStorage {
		a.Storage, err = storage.Open(storage.Options{
			Dir:       cfg.Storage.Dir,
			InMemory:  cfg.Storage.InMemory,
			Logger:    log,
			ResultTTL: cfg.Storage.ResultTTL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "open storage")
		}
	}

	eopts := engine.Options{
		Workers:           cfg.Engine.Workers,
		ParallelThreshold: cfg.Engine.ParallelThreshold,
		RuleCacheSize:     cfg.Engine.RuleCacheSize,
		Logger:            log,
		Metrics:           engine.NewMetrics(a.Registry),
	}
	if a.Storage != nil && !opts.NoCache {
		eopts.Results = a.Storage
	}
	a.Engine, err = engine.New(eopts)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "create engine")
	}
	return a, nil
}

// Budget returns the configured evaluation budget. Zero for both limits
// means no bound at all.
func (a *App) Budget() engine.Budget {
	b := engine.Budget{MaxSteps: a.Config.Engine.MaxSteps, Timeout: a.Config.Engine.Timeout}
	if b.IsZero() {
		return engine.Unlimited
	}
	return b
}

// Close releases the engine and the database.
func (a *App) Close() error {
	var result *multierror.Error
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "close storage"))
		}
	}
	return result.ErrorOrNil()
}
