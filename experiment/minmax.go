package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/zeromicro/go-zero/core/syncx"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

// MinMax 向量的最小值和最大值
type MinMax struct {
	Min int64 `json:"min" bson:"min"`
	Max int64 `json:"max" bson:"max"`
}

func (m MinMax) String() string {
	return fmt.Sprintf("Min: %d, Max: %d", m.Min, m.Max)
}

var emptyMinMax = MinMax{Min: math.MaxInt64, Max: math.MinInt64}

func (m MinMax) merge(o MinMax) MinMax {
	return MinMax{Min: min(m.Min, o.Min), Max: max(m.Max, o.Max)}
}

func scanMinMax(vec []int64, acc MinMax) MinMax {
	for _, v := range vec {
		acc.Min = min(acc.Min, v)
		acc.Max = max(acc.Max, v)
	}
	return acc
}

// MinMaxReduction 每个 worker 本地求值，join 后合并
func MinMaxReduction(ctx context.Context, team parallel.Team, vec []int64) (MinMax, error) {
	return parallel.Reduce(ctx, team, len(vec), emptyMinMax, func(lo, hi int, acc MinMax) MinMax {
		return scanMinMax(vec[lo:hi], acc)
	}, MinMax.merge)
}

// MinMaxCritical 每块算完后在临界区里更新共享结果
func MinMaxCritical(ctx context.Context, team parallel.Team, vec []int64) (MinMax, error) {
	var (
		critical syncx.Barrier
		shared   = emptyMinMax
	)
	err := team.For(ctx, len(vec), func(_, lo, hi int) {
		local := scanMinMax(vec[lo:hi], emptyMinMax)
		critical.Guard(func() {
			shared = shared.merge(local)
		})
	})
	return shared, err
}

func runMinMax(ctx context.Context, env *Env) error {
	c := env.Config.MinMax
	methods := []struct {
		name string
		fn   func(context.Context, parallel.Team, []int64) (MinMax, error)
	}{
		{"reduction", MinMaxReduction},
		{"critical", MinMaxCritical},
	}

	for _, size := range c.Sizes {
		key := fmt.Sprintf("ints/%d/%d-%d/%d", size, c.Min, c.Max, env.seed())
		vec := dataset.Load(env.Cache, key, func() []int64 {
			return dataset.RandomInts(size, c.Min, c.Max, env.seed())
		})
		for _, threads := range c.Threads {
			team := parallel.Team{Threads: threads}
			for _, m := range methods {
				params := report.Params("size", size, "threads", threads, "method", m.name)
				avg, res, err := measure(c.Repeats, func() (MinMax, error) {
					return m.fn(ctx, team, vec)
				})
				if err != nil {
					env.fail(ctx, "minmax", params, err)
					continue
				}
				env.emit(ctx, "minmax", params, avg, res)
			}
		}
	}
	return nil
}
