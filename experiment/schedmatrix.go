package experiment

import (
	"context"
	"fmt"
	"math"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

// rowMinNonZero 忽略 0 元素，全 0 的行返回 +Inf
func rowMinNonZero(row []float64) float64 {
	m := math.Inf(1)
	for _, v := range row {
		if v != 0 {
			m = min(m, v)
		}
	}
	return m
}

// MaxOfNonZeroRowMins 按 team 的调度方式并行处理各行
func MaxOfNonZeroRowMins(ctx context.Context, team parallel.Team, m [][]float64) (float64, error) {
	return parallel.Max(ctx, team, len(m), math.Inf(-1), func(i int) float64 {
		return rowMinNonZero(m[i])
	})
}

func runSchedMatrix(ctx context.Context, env *Env) error {
	c := env.Config.SchedMatrix
	schedules := make([]parallel.Schedule, 0, len(c.Schedules))
	for _, name := range c.Schedules {
		s, err := parallel.ParseSchedule(name)
		if err != nil {
			return err
		}
		schedules = append(schedules, s)
	}

	for _, size := range c.Sizes {
		kinds := []struct {
			name string
			m    [][]float64
		}{
			{"band", dataset.Load(env.Cache, fmt.Sprintf("band/%d/%d/%d", size, c.BandWidth, env.seed()), func() [][]float64 {
				return dataset.BandMatrix(size, size, c.BandWidth, env.seed())
			})},
			{"triangular", dataset.Load(env.Cache, fmt.Sprintf("lower/%d/%d", size, env.seed()), func() [][]float64 {
				return dataset.LowerTriangular(size, size, env.seed())
			})},
		}
		for _, kind := range kinds {
			for _, threads := range c.Threads {
				for _, s := range schedules {
					team := parallel.Team{Threads: threads, Schedule: s, Chunk: c.Chunk}
					params := report.Params("matrix", kind.name, "size", size, "threads", threads, "schedule", s.String())
					avg, res, err := measure(c.Repeats, func() (float64, error) {
						return MaxOfNonZeroRowMins(ctx, team, kind.m)
					})
					if err != nil {
						env.fail(ctx, "schedmatrix", params, err)
						continue
					}
					env.emit(ctx, "schedmatrix", params, avg, res)
				}
			}
		}
	}
	return nil
}
