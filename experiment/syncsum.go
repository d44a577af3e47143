package experiment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/syncx"

	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

// 以下几种求和方式结果相同，区别只在每个元素累加时的同步手段

func SumAtomic(ctx context.Context, team parallel.Team, vec []int64) (int64, error) {
	var sum atomic.Int64
	err := team.For(ctx, len(vec), func(_, lo, hi int) {
		for _, v := range vec[lo:hi] {
			sum.Add(v)
		}
	})
	return sum.Load(), err
}

// SumCritical 每次累加都进入同一个临界区
func SumCritical(ctx context.Context, team parallel.Team, vec []int64) (int64, error) {
	var (
		critical syncx.Barrier
		sum      int64
	)
	err := team.For(ctx, len(vec), func(_, lo, hi int) {
		for _, v := range vec[lo:hi] {
			critical.Guard(func() { sum += v })
		}
	})
	return sum, err
}

func SumLock(ctx context.Context, team parallel.Team, vec []int64) (int64, error) {
	var (
		mu  sync.Mutex
		sum int64
	)
	err := team.For(ctx, len(vec), func(_, lo, hi int) {
		for _, v := range vec[lo:hi] {
			mu.Lock()
			sum += v
			mu.Unlock()
		}
	})
	return sum, err
}

func SumSpinLock(ctx context.Context, team parallel.Team, vec []int64) (int64, error) {
	var (
		lock syncx.SpinLock
		sum  int64
	)
	err := team.For(ctx, len(vec), func(_, lo, hi int) {
		for _, v := range vec[lo:hi] {
			lock.Lock()
			sum += v
			lock.Unlock()
		}
	})
	return sum, err
}

func SumReduction(ctx context.Context, team parallel.Team, vec []int64) (int64, error) {
	return parallel.Sum(ctx, team, len(vec), func(i int) int64 { return vec[i] })
}

var sumMethods = []struct {
	name string
	fn   func(context.Context, parallel.Team, []int64) (int64, error)
}{
	{"atomic", SumAtomic},
	{"critical", SumCritical},
	{"lock", SumLock},
	{"spinlock", SumSpinLock},
	{"reduction", SumReduction},
}

func runSyncSum(ctx context.Context, env *Env) error {
	c := env.Config.Sync
	for _, size := range c.Sizes {
		vec := dataset.Load(env.Cache, fmt.Sprintf("ints/%d/0-99/%d", size, env.seed()), func() []int64 {
			return dataset.RandomInts(size, 0, 99, env.seed())
		})
		for _, threads := range c.Threads {
			team := parallel.Team{Threads: threads}
			for _, m := range sumMethods {
				params := report.Params("size", size, "threads", threads, "method", m.name)
				avg, res, err := measure(c.Repeats, func() (int64, error) {
					return m.fn(ctx, team, vec)
				})
				if err != nil {
					env.fail(ctx, "syncsum", params, err)
					continue
				}
				env.emit(ctx, "syncsum", params, avg, res)
			}
		}
	}
	return nil
}
