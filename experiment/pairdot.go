package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/timex"

	"go-parallel-notes/dataset"
	"go-parallel-notes/pipeline"
	"go-parallel-notes/report"
)

const (
	Match       = "Match"
	NoMatch     = "Do not match"
	NoResults   = "no results"
	vectorsFile = "vectors.txt"
)

// Verdict 比较流水线结果和顺序计算的参考结果
func Verdict(got, want []int64, err error) string {
	if errors.Is(err, pipeline.ErrSourceUnavailable) {
		return NoResults
	}
	if err == nil && slices.Equal(got, want) {
		return Match
	}
	return NoMatch
}

func openVectors(format, path string) pipeline.OpenFunc {
	if format == "line" {
		return pipeline.LineFile(path)
	}
	return pipeline.TokenFile(path)
}

// PairDot 先顺序计算参考结果，再用流水线计算，返回两者各自的耗时和结论
func PairDot(ctx context.Context, p *pipeline.Pipeline, open pipeline.OpenFunc, dim, n int) (seq, par time.Duration, verdict string, err error) {
	start := timex.Now()
	want, err := pipeline.Sequential(open, dim, n)
	seq = timex.Since(start)
	if err != nil && !errors.Is(err, pipeline.ErrSourceUnavailable) {
		return seq, 0, NoMatch, err
	}

	start = timex.Now()
	got, err := p.Run(ctx, open)
	par = timex.Since(start)
	if err != nil && !errors.Is(err, pipeline.ErrSourceUnavailable) {
		return seq, par, NoMatch, err
	}
	return seq, par, Verdict(got, want, err), nil
}

func runPairDot(ctx context.Context, env *Env) error {
	c := env.Config.PairDot
	dir := c.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "ompbench-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	path := filepath.Join(dir, vectorsFile)
	open := openVectors(c.Format, path)

	for _, n := range c.Counts {
		for _, dim := range c.Dims {
			if err := dataset.WriteVectorFile(path, n, dim, env.seed()); err != nil {
				// 文件写不出来时流水线照常运行，结论为 no results
				logx.WithContext(ctx).Errorf("pairdot write %s: %v", path, err)
				_ = os.Remove(path)
			}
			p := pipeline.New(dim)
			for _, threads := range c.Threads {
				seq, par, verdict, err := pairDotRow(ctx, p, open, dim, n, threads, c.Repeats)
				// 失败行也带 sequential 列，表头与后续行保持一致
				params := report.Params("count", n, "dim", dim, "threads", threads, "sequential (s)", seq.Seconds())
				if err != nil {
					env.fail(ctx, "pairdot", params, err)
					continue
				}
				env.emit(ctx, "pairdot", params, par, verdict)
			}
		}
	}
	return nil
}

// pairDotRow 在 GOMAXPROCS=threads 下重复 repeats 次，返回平均耗时
func pairDotRow(ctx context.Context, p *pipeline.Pipeline, open pipeline.OpenFunc, dim, n, threads, repeats int) (time.Duration, time.Duration, string, error) {
	prev := runtime.GOMAXPROCS(threads)
	defer runtime.GOMAXPROCS(prev)

	var (
		seqTotal, parTotal time.Duration
		verdict            string
	)
	repeats = max(repeats, 1)
	for range repeats {
		seq, par, v, err := PairDot(ctx, p, open, dim, n)
		if err != nil {
			return 0, 0, v, err
		}
		seqTotal += seq
		parTotal += par
		verdict = v
	}
	return seqTotal / time.Duration(repeats), parTotal / time.Duration(repeats), verdict, nil
}
