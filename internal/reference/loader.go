package reference

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/hts-classify/internal/model"
	"github.com/sells-group/hts-classify/internal/resilience"
)

// Options controls how the Loader fetches a source.
type Options struct {
	// Timeout bounds one load, retries included. Default: 30s.
	Timeout time.Duration
	// AttemptTimeout bounds each fetch attempt so a hung attempt leaves
	// budget for a retry. Default: Timeout split evenly across attempts.
	AttemptTimeout time.Duration
	Retry          resilience.RetryConfig
	Breaker resilience.CircuitBreakerConfig
}

// Loader caches one table per source ID. A cached table with rows is served
// without refetching; an empty one is reloaded on the next call. Concurrent
// first loads of a source share a single fetch.
type Loader struct {
	deps Deps
	opts Options
	open func(id string) (Source, error)
	now  func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	tables   map[string]*model.Table
	errs     map[string]error
	breakers map[string]*resilience.CircuitBreaker
}

// NewLoader creates a Loader that resolves source IDs with NewSource.
func NewLoader(deps Deps, opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = AttemptTimeout(opts.Timeout, opts.Retry.MaxAttempts)
	}
	l := &Loader{
		deps:     deps,
		opts:     opts,
		now:      time.Now,
		tables:   make(map[string]*model.Table),
		errs:     make(map[string]error),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
	l.open = func(id string) (Source, error) { return NewSource(id, l.deps) }
	return l
}

// AttemptTimeout splits a load budget evenly across maxAttempts fetch
// attempts. maxAttempts <= 0 means the retry default of 3.
func AttemptTimeout(budget time.Duration, maxAttempts int) time.Duration {
	if maxAttempts <= 0 {
		maxAttempts = resilience.DefaultRetryConfig().MaxAttempts
	}
	return budget / time.Duration(maxAttempts)
}

// Load returns the table for sourceID. It never fails: an unreachable or
// unparseable source is logged and yields an empty table.
func (l *Loader) Load(ctx context.Context, sourceID string) *model.Table {
	if t := l.cached(sourceID); !t.Empty() {
		return t
	}

	v, _, _ := l.group.Do(sourceID, func() (any, error) {
		if t := l.cached(sourceID); !t.Empty() {
			return t, nil
		}

		t, err := l.fetch(ctx, sourceID)

		l.mu.Lock()
		l.tables[sourceID] = t
		if err != nil {
			l.errs[sourceID] = err
		} else {
			delete(l.errs, sourceID)
		}
		l.mu.Unlock()

		return t, nil
	})
	return v.(*model.Table)
}

// LastError returns the error from the most recent failed load of sourceID,
// or nil if the last load succeeded or none ran.
func (l *Loader) LastError(sourceID string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.errs[sourceID]
}

// Status describes the cached state of one source.
type Status struct {
	Summary
	Cached    bool   `json:"cached"`
	Breaker   string `json:"breaker"`
	LastError string `json:"last_error,omitempty"`
}

// Status reports the cached table and fetch health of sourceID without loading it.
func (l *Loader) Status(sourceID string) Status {
	t := l.cached(sourceID)
	st := Status{
		Summary: Summarize(t),
		Cached:  t != nil,
		Breaker: l.breaker(sourceID).State().String(),
	}
	st.Source = sourceID
	if err := l.LastError(sourceID); err != nil {
		st.LastError = err.Error()
	}
	return st
}

func (l *Loader) cached(sourceID string) *model.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[sourceID]
}

func (l *Loader) breaker(sourceID string) *resilience.CircuitBreaker {
	l.mu.Lock()
	defer l.mu.Unlock()
	cb, ok := l.breakers[sourceID]
	if !ok {
		cfg := l.opts.Breaker
		if cfg.OnStateChange == nil {
			cfg.OnStateChange = func(from, to resilience.CircuitState) {
				zap.L().Warn("reference: circuit breaker state change",
					zap.String("source", sourceID),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			}
		}
		cb = resilience.NewCircuitBreaker(cfg)
		l.breakers[sourceID] = cb
	}
	return cb
}

func (l *Loader) fetch(ctx context.Context, sourceID string) (*model.Table, error) {
	log := zap.L().With(zap.String("source", sourceID))
	start := l.now()
	empty := model.NewTable(sourceID, start, nil)

	src, err := l.open(sourceID)
	if err != nil {
		log.Error("reference: invalid source", zap.Error(err))
		return empty, err
	}

	// Detached from the caller so one cancelled request does not fail the
	// load shared by every waiter.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.Timeout)
	defer cancel()

	retry := l.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(sourceID)
	}

	records, err := resilience.ExecuteVal(ctx, l.breaker(sourceID), func(ctx context.Context) ([][]string, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) ([][]string, error) {
			ctx, cancel := context.WithTimeout(ctx, l.opts.AttemptTimeout)
			defer cancel()
			return src.Records(ctx)
		})
	})
	if err != nil {
		err = eris.Wrapf(err, "reference: load %s", sourceID)
		log.Error("reference: source unavailable, serving empty table", zap.Error(err))
		return empty, err
	}

	t, err := BuildTable(sourceID, records, l.now())
	if err != nil {
		log.Error("reference: unusable table, serving empty table",
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return t, err
	}

	log.Info("reference: table loaded",
		zap.Int("records", len(records)-1),
		zap.Int("rows", t.Len()),
		zap.Duration("elapsed", l.now().Sub(start)),
	)
	return t, nil
}
