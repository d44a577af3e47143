package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zeromicro/go-zero/core/logx"

	"go-parallel-notes/parallel"
)

// Dot 返回 a、b 的点积。元素和累加器都是 int64，溢出按补码回绕。
func Dot(a, b []int64) int64 {
	var sum int64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Pipeline 一个读取者 + 一个归约者，通过两个交替使用的 slot 逐对交接向量。
// 同一时刻只有一对向量在途，结果顺序与数据源中向量对的顺序一致。
type Pipeline struct {
	dim   int
	state *State
}

func New(dim int) *Pipeline {
	return &Pipeline{dim: dim, state: NewState(dim)}
}

// Run 从 open 读取向量并返回每一对的点积。
// 数据源打不开时记录一次日志、不产生任何结果并返回 ErrSourceUnavailable；
// 输入格式错误时返回 ErrMalformedInput；ctx 取消时两端都会退出。
func (p *Pipeline) Run(ctx context.Context, open OpenFunc) ([]int64, error) {
	if p.dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrMalformedInput, p.dim)
	}
	p.state.Reset()
	stop := context.AfterFunc(ctx, func() {
		p.state.Abort(context.Cause(ctx))
	})
	defer stop()

	var results []int64
	err := parallel.Sections(ctx,
		func(ctx context.Context) error {
			return p.produce(ctx, open)
		},
		func(context.Context) error {
			var err error
			results, err = p.consume()
			return err
		},
	)
	return results, err
}

// Run 是 New(dim).Run 的简写
func Run(ctx context.Context, open OpenFunc, dim int) ([]int64, error) {
	return New(dim).Run(ctx, open)
}

func (p *Pipeline) produce(ctx context.Context, open OpenFunc) error {
	src, err := open()
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		logx.WithContext(ctx).Errorf("pipeline: %v", err)
		p.state.Finish()
		return err
	}
	defer src.Close()

	cur := make([]int64, p.dim)
	second := false
	for {
		if err := src.Next(cur); err != nil {
			if errors.Is(err, io.EOF) {
				// 奇数个向量时最后一个留在半满的 slot 里，直接丢弃
				p.state.Finish()
				return nil
			}
			p.state.Abort(err)
			return err
		}
		if err := p.state.Deposit(cur, second); err != nil {
			return err
		}
		second = !second
	}
}

func (p *Pipeline) consume() ([]int64, error) {
	var results []int64
	for {
		ok, err := p.state.Take(func(left, right []int64) {
			results = append(results, Dot(left, right))
		})
		if err != nil {
			return results, err
		}
		if !ok {
			return results, nil
		}
	}
}

// Sequential 从头重新读取数据源，按 (A, B) 顺序读 n/2 对并计算点积，用来校验 Run 的结果。
// n < 0 表示读到数据源结束；数据源提前结束时返回已算出的部分。
func Sequential(open OpenFunc, dim, n int) ([]int64, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrMalformedInput, dim)
	}
	src, err := open()
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return nil, err
	}
	defer src.Close()

	a, b := make([]int64, dim), make([]int64, dim)
	var results []int64
	for i := 0; n < 0 || i < n/2; i++ {
		if err := src.Next(a); err != nil {
			return results, eofIsNil(err)
		}
		if err := src.Next(b); err != nil {
			return results, eofIsNil(err)
		}
		results = append(results, Dot(a, b))
	}
	return results, nil
}

func eofIsNil(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
