package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/classify"
	"github.com/sells-group/hts-classify/internal/country"
	"github.com/sells-group/hts-classify/internal/fetcher"
	"github.com/sells-group/hts-classify/internal/monitoring"
	"github.com/sells-group/hts-classify/internal/reference"
	"github.com/sells-group/hts-classify/internal/resilience"
	"github.com/sells-group/hts-classify/internal/store"
)

// env holds the components shared by the subcommands.
type env struct {
	Source  string
	HTTP    *fetcher.HTTPFetcher
	Deps    reference.Deps
	Store   store.Store
	Loader  *reference.Loader
	Metrics *monitoring.Collector
	Service *classify.Service
}

// initEnv wires the classifier for source. The snapshot store is opened when
// withStore is set or the source reads from a stored snapshot.
func initEnv(ctx context.Context, source string, withStore bool) (*env, error) {
	if source == "" {
		source = cfg.Reference.Source
	}
	e := &env{Source: source}

	attempt := reference.AttemptTimeout(cfg.Reference.Timeout(), cfg.Reference.MaxRetries)
	e.HTTP = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    attempt,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
	deps := reference.Deps{
		HTTP:    e.HTTP,
		FTP:     fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: attempt}),
		Charset: cfg.Reference.Charset,
	}

	if withStore || strings.HasPrefix(source, reference.SnapshotPrefix) {
		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		e.Store = st
		deps.Snapshots = st
	}

	countries, err := country.NewResolver(cfg.Country.OverridesFile)
	if err != nil {
		e.Close()
		return nil, eris.Wrap(err, "load countries")
	}

	e.Deps = deps
	e.Loader = reference.NewLoader(deps, reference.Options{
		Timeout:        cfg.Reference.Timeout(),
		AttemptTimeout: attempt,
		Retry:          resilience.RetryConfig{MaxAttempts: cfg.Reference.MaxRetries},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Reference.BreakerFailures,
			ResetTimeout:     time.Duration(cfg.Reference.BreakerResetSecs) * time.Second,
		},
	})
	e.Metrics = monitoring.NewCollector(e.Loader, source)
	e.Service = classify.NewService(e.Loader, source, countries, classify.WithRecorder(e.Metrics))

	return e, nil
}

// Close releases the store, if one was opened.
func (e *env) Close() {
	if e.Store == nil {
		return
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}
