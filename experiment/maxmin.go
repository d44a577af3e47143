package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/zeromicro/go-zero/core/mr"

	"go-parallel-notes/dataset"
	"go-parallel-notes/report"
)

func rowMin(row []float64) float64 {
	m := math.Inf(1)
	for _, v := range row {
		m = min(m, v)
	}
	return m
}

// MaxOfRowMins 每行求最小值，再取所有行最小值中的最大值。
// 行由 workers 个 mapper 并发处理，reducer 单独汇总。
func MaxOfRowMins(ctx context.Context, workers int, m [][]float64) (float64, error) {
	return mr.MapReduce(func(source chan<- int) {
		for i := range m {
			source <- i
		}
	}, func(i int, writer mr.Writer[float64], cancel func(error)) {
		writer.Write(rowMin(m[i]))
	}, func(pipe <-chan float64, writer mr.Writer[float64], cancel func(error)) {
		best := math.Inf(-1)
		for v := range pipe {
			best = max(best, v)
		}
		writer.Write(best)
	}, mr.WithWorkers(workers), mr.WithContext(ctx))
}

func runMaxMin(ctx context.Context, env *Env) error {
	c := env.Config.MaxMin
	for _, rows := range c.Rows {
		key := fmt.Sprintf("matrix/%dx%d/%d", rows, c.Cols, env.seed())
		m := dataset.Load(env.Cache, key, func() [][]float64 {
			return dataset.RandomMatrix(rows, c.Cols, 1, 100, env.seed())
		})
		for _, threads := range c.Threads {
			params := report.Params("rows", rows, "cols", c.Cols, "threads", threads)
			avg, res, err := measure(c.Repeats, func() (float64, error) {
				return MaxOfRowMins(ctx, threads, m)
			})
			if err != nil {
				env.fail(ctx, "maxmin", params, err)
				continue
			}
			env.emit(ctx, "maxmin", params, avg, res)
		}
	}
	return nil
}
