package experiment

import (
	"context"

	"go-parallel-notes/parallel"
	"go-parallel-notes/report"
)

func cube(x float64) float64 { return x * x * x }

// Integral 中点法求 f 在 [a, b] 上的积分，区间等分为 n 份
func Integral(ctx context.Context, team parallel.Team, f func(float64) float64, a, b float64, n int) (float64, error) {
	if n <= 0 {
		return 0, nil
	}
	h := (b - a) / float64(n)
	sum, err := parallel.Sum(ctx, team, n, func(i int) float64 {
		return f(a + (float64(i)+0.5)*h)
	})
	return sum * h, err
}

func runIntegral(ctx context.Context, env *Env) error {
	c := env.Config.Integral
	for _, n := range c.Divisions {
		for _, threads := range c.Threads {
			team := parallel.Team{Threads: threads}
			params := report.Params("divisions", n, "threads", threads)
			avg, res, err := measure(c.Repeats, func() (float64, error) {
				return Integral(ctx, team, cube, c.A, c.B, n)
			})
			if err != nil {
				env.fail(ctx, "integral", params, err)
				continue
			}
			env.emit(ctx, "integral", params, avg, res)
		}
	}
	return nil
}
