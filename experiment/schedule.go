package experiment

import (
	"context"
	"fmt"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

// heavy 模拟耗时随迭代变化的计算，cost 次累加
func heavy(cost int64) float64 {
	var sum float64
	for j := range cost {
		sum += float64(j) * 0.0001
	}
	return sum
}

// UnevenLoop 第 i 次迭代做 costs[i] 次累加，返回总和
func UnevenLoop(ctx context.Context, team parallel.Team, costs []int64) (float64, error) {
	return parallel.Sum(ctx, team, len(costs), func(i int) float64 {
		return heavy(costs[i])
	})
}

func runSchedule(ctx context.Context, env *Env) error {
	c := env.Config.Schedule
	costs := dataset.Load(env.Cache, fmt.Sprintf("costs/%d/%d", c.Iterations, env.seed()), func() []int64 {
		return dataset.RandomInts(c.Iterations, 1, 1000, env.seed())
	})

	for _, threads := range c.Threads {
		for _, name := range c.Schedules {
			s, err := parallel.ParseSchedule(name)
			if err != nil {
				return err
			}
			chunk := c.Chunk
			if s == parallel.Guided {
				chunk = c.GuidedChunk
			}
			team := parallel.Team{Threads: threads, Schedule: s, Chunk: chunk}
			params := report.Params("iterations", c.Iterations, "threads", threads, "schedule", s.String(), "chunk", chunk)
			avg, res, err := measure(c.Repeats, func() (float64, error) {
				return UnevenLoop(ctx, team, costs)
			})
			if err != nil {
				env.fail(ctx, "schedule", params, err)
				continue
			}
			env.emit(ctx, "schedule", params, avg, res)
		}
	}
	return nil
}
