// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one expression in a batch.
type Result struct {
	Expression string
	Value      int64
	Err        error
}

// EvalBatch evaluates independent expressions concurrently, at most
// parallelism at a time (GOMAXPROCS when parallelism <= 0). Results are
// returned in input order. Expressions not started before ctx is done
// carry ctx.Err(); the returned error is ctx.Err() in that case.
func (e *Evaluator) EvalBatch(ctx context.Context, inputs []string, parallelism int) ([]Result, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, input := range inputs {
		i, input := i, input
		results[i].Expression = input
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = e.Eval(input)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}
