package experiment

import (
	"context"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

// DotProduct 两个等长向量的并行点积，每块内部用 SIMD 内核
func DotProduct(ctx context.Context, team parallel.Team, a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("experiment: dot of lengths %d and %d", len(a), len(b))
	}
	return parallel.Reduce(ctx, team, len(a), 0.0, func(lo, hi int, acc float64) float64 {
		return acc + vecmath.DotProduct(a[lo:hi], b[lo:hi])
	}, func(x, y float64) float64 { return x + y })
}

func runDot(ctx context.Context, env *Env) error {
	c := env.Config.Dot
	for _, size := range c.Sizes {
		a := dataset.Load(env.Cache, fmt.Sprintf("filled/%d/1", size), func() []float64 {
			return dataset.Filled(size, 1)
		})
		b := dataset.Load(env.Cache, fmt.Sprintf("filled/%d/2", size), func() []float64 {
			return dataset.Filled(size, 2)
		})
		for _, threads := range c.Threads {
			team := parallel.Team{Threads: threads}
			params := report.Params("size", size, "threads", threads)
			avg, res, err := measure(c.Repeats, func() (float64, error) {
				return DotProduct(ctx, team, a, b)
			})
			if err != nil {
				env.fail(ctx, "dot", params, err)
				continue
			}
			env.emit(ctx, "dot", params, avg, res)
		}
	}
	return nil
}
