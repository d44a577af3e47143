package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Team 描述一次 fork-join 并行区域：线程数、调度方式和 chunk 大小。
// 零值可直接使用：GOMAXPROCS 个 worker、static 连续分块。
type Team struct {
	Threads  int
	Schedule Schedule
	Chunk    int
}

// Size 返回实际 worker 数
func (t Team) Size() int {
	if t.Threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return t.Threads
}

// For 把 [0, n) 切成区间分发给 worker 并等待全部完成（join）。
// body 收到的 worker 编号在 [0, Size()) 内，同一 worker 的调用是串行的。
// ctx 取消后不再分发新区间，返回 ctx.Err()。
func (t Team) For(ctx context.Context, n int, body func(worker, lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	threads := min(t.Size(), n)
	iterFor := dispatcher(t.Schedule, n, threads, t.Chunk)

	g, ctx := errgroup.WithContext(ctx)
	done := ctx.Done()
	for w := range threads {
		next := iterFor(w)
		g.Go(func() error {
			for {
				select {
				case <-done:
					return ctx.Err()
				default:
				}
				lo, hi, ok := next()
				if !ok {
					return nil
				}
				body(w, lo, hi)
			}
		})
	}
	return g.Wait()
}

// Sections 并发执行若干互相独立的任务（类似 omp parallel sections），
// 任意一个返回错误时取消其余任务的 ctx，返回第一个错误
func Sections(ctx context.Context, sections ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range sections {
		g.Go(func() error {
			return fn(ctx)
		})
	}
	return g.Wait()
}
