package parallel

import (
	"cmp"
	"context"
)

const CacheLineSize = 64

// partial 每个 worker 独占一条 cache line，避免累加时的 false sharing
type partial[T any] struct {
	v T
	_ [CacheLineSize]byte
}

// Reduce 是带 reduction 子句的并行 for：每个 worker 从 identity 开始在本地累加，
// join 之后按 worker 编号顺序用 combine 合并。combine 需满足结合律。
func Reduce[T any](ctx context.Context, t Team, n int, identity T,
	body func(lo, hi int, acc T) T, combine func(a, b T) T) (T, error) {
	parts := make([]partial[T], t.Size())
	for i := range parts {
		parts[i].v = identity
	}
	err := t.For(ctx, n, func(worker, lo, hi int) {
		parts[worker].v = body(lo, hi, parts[worker].v)
	})
	if err != nil {
		return identity, err
	}
	acc := identity
	for i := range parts {
		acc = combine(acc, parts[i].v)
	}
	return acc, nil
}

// Sum 对 f(i) 求和
func Sum[T cmp.Ordered](ctx context.Context, t Team, n int, f func(i int) T) (T, error) {
	var zero T
	return Reduce(ctx, t, n, zero, func(lo, hi int, acc T) T {
		for i := lo; i < hi; i++ {
			acc += f(i)
		}
		return acc
	}, func(a, b T) T { return a + b })
}

// Min / Max 的 identity 由调用方给出（例如 math.MaxInt64 或 +Inf）

func Min[T cmp.Ordered](ctx context.Context, t Team, n int, identity T, f func(i int) T) (T, error) {
	return Reduce(ctx, t, n, identity, func(lo, hi int, acc T) T {
		for i := lo; i < hi; i++ {
			acc = min(acc, f(i))
		}
		return acc
	}, func(a, b T) T { return min(a, b) })
}

func Max[T cmp.Ordered](ctx context.Context, t Team, n int, identity T, f func(i int) T) (T, error) {
	return Reduce(ctx, t, n, identity, func(lo, hi int, acc T) T {
		for i := lo; i < hi; i++ {
			acc = max(acc, f(i))
		}
		return acc
	}, func(a, b T) T { return max(a, b) })
}
