package calc

import (
	"github.com/jcgregorio/logger"
	"github.com/prometheus/client_golang/prometheus"

	"nickandperla.net/calc/internal/eval"
	"nickandperla.net/calc/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// Store interface for custom history stores.
type Store = store.Store

// Entry is one recorded evaluation.
type Entry = store.Entry

// Overflow controls what happens when a result leaves the int64 range.
type Overflow = eval.Overflow

// Overflow policy constants.
const (
	OverflowFail = eval.OverflowFail
	OverflowWrap = eval.OverflowWrap
)

// ParseOverflow parses a string into an Overflow policy.
func ParseOverflow(s string) (Overflow, bool) {
	return eval.ParseOverflow(s)
}

// Step describes one reduction reported by Trace.
type Step = eval.Step

// Result is the outcome of one expression in a batch.
type Result = eval.Result

// WithSQLiteStore configures SQLite history persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.initErr = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory history store.
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore sets a custom history store. The Runtime closes it on Close.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runtime) {
		r.log = l
	}
}

// WithCache enables an LRU cache of up to size results.
func WithCache(size int) Option {
	return func(r *Runtime) {
		r.cacheSize = size
	}
}

// WithMetrics registers evaluation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Runtime) {
		r.registerer = reg
	}
}

// WithMaxExponent bounds the exponents accepted by ^.
func WithMaxExponent(n int64) Option {
	return func(r *Runtime) {
		r.evalOpts = append(r.evalOpts, eval.WithMaxExponent(n))
	}
}

// WithOverflow sets the overflow policy.
func WithOverflow(o Overflow) Option {
	return func(r *Runtime) {
		r.evalOpts = append(r.evalOpts, eval.WithOverflow(o))
	}
}

// WithSession sets the session ID recorded with history entries. A random
// ID is used if none is given.
func WithSession(id string) Option {
	return func(r *Runtime) {
		r.session = id
	}
}

// WithParallelism bounds the number of concurrent evaluations in EvalBatch.
func WithParallelism(n int) Option {
	return func(r *Runtime) {
		r.parallelism = n
	}
}
