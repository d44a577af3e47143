package experiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/timex"

	"go-parallel-notes/config"
	"go-parallel-notes/dataset"
	"go-parallel-notes/report"
)

var ErrUnknownExperiment = errors.New("experiment: unknown experiment")

// Env 一次运行中所有实验共享的环境
type Env struct {
	Config config.Config
	Sink   report.Sink
	Cache  *dataset.Cache
	RunID  string
}

func NewEnv(c config.Config, sink report.Sink) *Env {
	return &Env{
		Config: c,
		Sink:   sink,
		Cache:  dataset.NewCache(),
		RunID:  report.NewRunID(),
	}
}

// Experiment 一个独立的计时实验
type Experiment struct {
	Name  string
	Title string
	Run   func(ctx context.Context, env *Env) error
}

var registry = []Experiment{
	{"minmax", "min/max of a random vector: reduction vs critical section", runMinMax},
	{"dot", "dot product of two float vectors", runDot},
	{"integral", "midpoint-rule integral of x^3", runIntegral},
	{"maxmin", "max of row minimums (map/reduce)", runMaxMin},
	{"schedmatrix", "max of non-zero row minimums on band/triangular matrices per schedule", runSchedMatrix},
	{"schedule", "iteration scheduling on uneven work", runSchedule},
	{"syncsum", "shared sum: atomic / critical / lock / spinlock / reduction", runSyncSum},
	{"pairdot", "paired-buffer pipeline vs sequential dot products", runPairDot},
	{"nested", "flat vs nested parallel max of row minimums", runNested},
}

// All 按固定顺序返回全部实验
func All() []Experiment {
	return append([]Experiment(nil), registry...)
}

// Lookup 按名字选出实验，保持 registry 中的顺序；names 为空时返回全部
func Lookup(names ...string) ([]Experiment, error) {
	if len(names) == 0 {
		return All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		found := false
		for _, e := range registry {
			if e.Name == n {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExperiment, n)
		}
		want[n] = true
	}
	var out []Experiment
	for _, e := range registry {
		if want[e.Name] {
			out = append(out, e)
		}
	}
	return out, nil
}

// RunAll 依次运行实验。单个实验失败只记录日志，不影响后面的实验。
func RunAll(ctx context.Context, env *Env, exps []Experiment) error {
	var errs []error
	for _, e := range exps {
		if err := ctx.Err(); err != nil {
			return err
		}
		logx.WithContext(ctx).Infow("experiment started",
			logx.Field("name", e.Name), logx.Field("runId", env.RunID))
		start := timex.Now()
		if err := e.Run(ctx, env); err != nil {
			logx.WithContext(ctx).Errorf("experiment %s: %v", e.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
			continue
		}
		logx.WithContext(ctx).Infow("experiment finished",
			logx.Field("name", e.Name), logx.Field("elapsed", timex.ReprOfDuration(timex.Since(start))))
	}
	return errors.Join(errs...)
}

// measure 运行 fn repeats 次，返回平均耗时和最后一次的结果
func measure[T any](repeats int, fn func() (T, error)) (time.Duration, T, error) {
	var (
		total  time.Duration
		result T
		err    error
	)
	repeats = max(repeats, 1)
	for range repeats {
		start := timex.Now()
		result, err = fn()
		total += timex.Since(start)
		if err != nil {
			return 0, result, err
		}
	}
	return total / time.Duration(repeats), result, nil
}

// emit 写出一行结果；sink 出错只记录日志
func (env *Env) emit(ctx context.Context, name string, params []report.Param, avg time.Duration, result any) {
	row := report.Row{
		RunID:      env.RunID,
		Experiment: name,
		Params:     params,
		Seconds:    avg.Seconds(),
		Result:     result,
		Time:       time.Now(),
	}
	if err := env.Sink.Write(ctx, row); err != nil {
		logx.WithContext(ctx).Errorf("report %s: %v", name, err)
	}
}

// fail 记录单行失败并输出一行占位结果，扫描继续
func (env *Env) fail(ctx context.Context, name string, params []report.Param, err error) {
	logx.WithContext(ctx).Errorf("%s %v: %v", name, params, err)
	env.emit(ctx, name, params, 0, "failed: "+err.Error())
}

func (env *Env) seed() int64 { return env.Config.Seed }
