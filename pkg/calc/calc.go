// Package calc provides the public API for the calc expression evaluator.
package calc

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jcgregorio/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/internal/eval"
	"nickandperla.net/calc/internal/rewrite"
	"nickandperla.net/calc/internal/store"
)

// Runtime evaluates expressions and keeps a history of what it evaluated.
// A Runtime is safe for concurrent use.
type Runtime struct {
	evaluator   *eval.Evaluator
	evalOpts    []eval.Option
	store       store.Store
	log         *logger.Logger
	cache       *lru.Cache
	cacheSize   int
	registerer  prometheus.Registerer
	metrics     *metrics
	session     string
	parallelism int
	initErr     error // First error raised while applying options
}

// cached is a memoized evaluation outcome. Evaluation is deterministic, so
// errors are cached along with values.
type cached struct {
	value int64
	err   error
}

// New creates a new calc runtime with the given options.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{}

	for _, opt := range opts {
		opt(r)
	}
	if r.initErr != nil {
		r.Close()
		return nil, r.initErr
	}

	if r.log == nil {
		r.log = logger.NewFromOptions(&logger.Options{SyncWriter: discard{}})
	}
	if r.session == "" {
		r.session = store.NewSessionID()
	}
	if r.cacheSize > 0 {
		c, err := lru.New(r.cacheSize)
		if err != nil {
			r.Close()
			return nil, errors.Wrap(err, "creating result cache")
		}
		r.cache = c
	}
	if r.registerer != nil {
		m, err := newMetrics(r.registerer)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.metrics = m
	}

	r.evaluator = eval.New(r.evalOpts...)
	return r, nil
}

// Session returns the session ID recorded with history entries.
func (r *Runtime) Session() string {
	return r.session
}

// Evaluator returns the underlying evaluator.
func (r *Runtime) Evaluator() *eval.Evaluator {
	return r.evaluator
}

// Eval evaluates an expression and records it in the history.
func (r *Runtime) Eval(input string) (int64, error) {
	key := rewrite.StripSpace(input)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			c := v.(cached)
			if r.metrics != nil {
				r.metrics.cacheHits.Inc()
			}
			r.finish(input, c.value, c.err, 0)
			return c.value, c.err
		}
	}

	start := time.Now()
	v, err := r.evaluator.Eval(input)
	if r.cache != nil {
		r.cache.Add(key, cached{value: v, err: err})
	}
	r.finish(input, v, err, time.Since(start))
	return v, err
}

// Trace evaluates an expression, calling hook after every reduction. The
// result cache is bypassed.
func (r *Runtime) Trace(input string, hook func(Step)) (int64, error) {
	start := time.Now()
	v, err := r.evaluator.EvalTrace(input, hook)
	r.finish(input, v, err, time.Since(start))
	return v, err
}

// EvalReader evaluates the whole content of reader as one expression.
func (r *Runtime) EvalReader(reader io.Reader) (int64, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return 0, errors.Wrap(err, "reading expression")
	}
	return r.Eval(string(b))
}

// EvalFile evaluates a file holding a single expression.
func (r *Runtime) EvalFile(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.EvalReader(f)
}

// EvalBatch evaluates independent expressions concurrently and records each
// one. Results are in input order.
func (r *Runtime) EvalBatch(ctx context.Context, inputs []string) ([]Result, error) {
	start := time.Now()
	results, err := r.evaluator.EvalBatch(ctx, inputs, r.parallelism)
	elapsed := time.Since(start)
	for _, res := range results {
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			continue
		}
		r.finish(res.Expression, res.Value, res.Err, 0)
	}
	r.log.Debugf("batch of %d expressions in %s", len(inputs), elapsed)
	return results, err
}

// finish updates metrics and history after an evaluation.
func (r *Runtime) finish(input string, v int64, err error, elapsed time.Duration) {
	kind := calcerr.KindOf(err)
	if r.metrics != nil {
		r.metrics.evaluations.WithLabelValues(outcome(kind)).Inc()
		if elapsed > 0 {
			r.metrics.duration.Observe(elapsed.Seconds())
		}
	}
	if err != nil {
		r.log.Debugf("evaluating %q: %s", input, err)
	}

	if r.store == nil {
		return
	}
	entry := store.Entry{Session: r.session, Expression: input, Result: v}
	if err != nil {
		entry.Result = 0
		entry.Error = err.Error()
	}
	if _, serr := r.store.Record(entry); serr != nil {
		r.log.Warningf("recording history: %s", serr)
	}
}

// History returns the most recent entries of session, newest first. An
// empty session returns entries from every session; limit <= 0 returns all.
func (r *Runtime) History(session string, limit int) ([]Entry, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.History(session, limit)
}

// ClearHistory removes the entries of session, or every entry if session is
// empty.
func (r *Runtime) ClearHistory(session string) error {
	if r.store == nil {
		return nil
	}
	return r.store.Clear(session)
}

// HasStore returns true if the runtime records history.
func (r *Runtime) HasStore() bool {
	return r.store != nil
}

// Close releases resources.
func (r *Runtime) Close() error {
	var result *multierror.Error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "closing store"))
		}
		r.store = nil
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	return result.ErrorOrNil()
}

// discard is a logger.SyncWriter that drops everything.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Sync() error                 { return nil }
