package experiment

import (
	"context"
	"fmt"
	"math"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

func intRowMin(row []int64) int64 {
	m := int64(math.MaxInt64)
	for _, v := range row {
		m = min(m, v)
	}
	return m
}

// MaxOfMinsFlat 只对行并行，每行内部顺序求最小值
func MaxOfMinsFlat(ctx context.Context, team parallel.Team, m [][]int64) (int64, error) {
	return parallel.Max(ctx, team, len(m), math.MinInt64, func(i int) int64 {
		return intRowMin(m[i])
	})
}

// MaxOfMinsNested 行内再开一个同样大小的 team 求最小值。
// 内层的错误通过 cancel cause 传回外层。
func MaxOfMinsNested(ctx context.Context, team parallel.Team, m [][]int64) (int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	inner := parallel.Team{Threads: team.Size()}
	best, err := parallel.Max(ctx, team, len(m), math.MinInt64, func(i int) int64 {
		row := m[i]
		v, err := parallel.Min(ctx, inner, len(row), math.MaxInt64, func(j int) int64 {
			return row[j]
		})
		if err != nil {
			cancel(err)
		}
		return v
	})
	if cause := context.Cause(ctx); cause != nil {
		return best, cause
	}
	return best, err
}

func runNested(ctx context.Context, env *Env) error {
	c := env.Config.Nested
	methods := []struct {
		name string
		fn   func(context.Context, parallel.Team, [][]int64) (int64, error)
	}{
		{"flat", MaxOfMinsFlat},
		{"nested", MaxOfMinsNested},
	}

	for _, size := range c.Sizes {
		m := dataset.Load(env.Cache, fmt.Sprintf("intmatrix/%d/%d", size, env.seed()), func() [][]int64 {
			return dataset.RandomIntMatrix(size, size, 0, 99, env.seed())
		})
		for _, threads := range c.Threads {
			team := parallel.Team{Threads: threads}
			for _, meth := range methods {
				params := report.Params("size", fmt.Sprintf("%dx%d", size, size), "threads", threads, "method", meth.name)
				avg, res, err := measure(c.Repeats, func() (int64, error) {
					return meth.fn(ctx, team, m)
				})
				if err != nil {
					env.fail(ctx, "nested", params, err)
					continue
				}
				env.emit(ctx, "nested", params, avg, res)
			}
		}
	}
	return nil
}
