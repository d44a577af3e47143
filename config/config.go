package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"go-parallel-notes/parallel"
)

// Sweep 每个实验共有的扫描参数，留空时依次取全局值、实验默认值
type Sweep struct {
	Threads []int `json:",optional"`
	Repeats int   `json:",optional"`
}

type (
	MinMaxConf struct {
		Sweep
		Sizes []int `json:",optional"`
		Min   int64 `json:",default=1"`
		Max   int64 `json:",default=10000"`
	}

	DotConf struct {
		Sweep
		Sizes []int `json:",optional"`
	}

	IntegralConf struct {
		Sweep
		Divisions []int   `json:",optional"`
		A         float64 `json:",default=0"`
		B         float64 `json:",default=1"`
	}

	MaxMinConf struct {
		Sweep
		Rows []int `json:",optional"`
		Cols int   `json:",default=100"`
	}

	SchedMatrixConf struct {
		Sweep
		Sizes     []int    `json:",optional"`
		BandWidth int      `json:",default=5"`
		Chunk     int      `json:",default=10"`
		Schedules []string `json:",optional"`
	}

	ScheduleConf struct {
		Sweep
		Iterations  int      `json:",default=10000"`
		Chunk       int      `json:",default=10"`
		GuidedChunk int      `json:",default=100"`
		Schedules   []string `json:",optional"`
	}

	SyncConf struct {
		Sweep
		Sizes []int `json:",optional"`
	}

	PairDotConf struct {
		Sweep
		Counts []int  `json:",optional"`
		Dims   []int  `json:",optional"`
		Dir    string `json:",optional"`
		Format string `json:",default=token,options=token|line"`
	}

	NestedConf struct {
		Sweep
		Sizes []int `json:",optional"`
	}

	KafkaConf struct {
		Brokers []string `json:",optional"`
		Topic   string   `json:",optional"`
	}

	MongoConf struct {
		URI        string `json:",optional"`
		Database   string `json:",default=ompbench"`
		Collection string `json:",default=results"`
	}

	OutputConf struct {
		Format string `json:",default=table,options=table|json"`
		Kafka  KafkaConf
		Mongo  MongoConf
	}

	DiagnosticsConf struct {
		Gops     bool   `json:",optional"`
		GopsAddr string `json:",optional"`
	}

	// Config 各小节不标 optional：缺省时 go-zero 用空 map 填充，小节内的 default 标签照样生效
	Config struct {
		Log         logx.LogConf
		Seed        int64 `json:",default=1"`
		Threads     []int `json:",optional"`
		Repeats     int   `json:",optional"`
		Output      OutputConf
		Diagnostics DiagnosticsConf

		MinMax      MinMaxConf
		Dot         DotConf
		Integral    IntegralConf
		MaxMin      MaxMinConf
		SchedMatrix SchedMatrixConf
		Schedule    ScheduleConf
		Sync        SyncConf
		PairDot     PairDotConf
		Nested      NestedConf
	}
)

var ErrInvalidConfig = errors.New("config: invalid")

var allSchedules = []string{"static", "dynamic", "guided"}

// Load 读取 yaml/json 配置文件，补齐默认值并校验
func Load(path string) (Config, error) {
	var c Config
	if err := conf.Load(path, &c); err != nil {
		return c, err
	}
	return c, c.finish()
}

// Parse 从 yaml 内容加载配置
func Parse(content []byte) (Config, error) {
	var c Config
	if err := conf.LoadFromYamlBytes(content, &c); err != nil {
		return c, err
	}
	return c, c.finish()
}

// Default 返回全部使用默认值的配置
func Default() Config {
	c, err := Parse([]byte("{}"))
	if err != nil {
		panic(err)
	}
	return c
}

// finish 在 go-zero 解析之后补齐切片默认值再校验。
// 校验方法不能叫 Validate，否则 conf 会在补齐之前就调用它。
func (c *Config) finish() error {
	c.applyDefaults()
	return c.validate()
}

func (c *Config) sweep(s *Sweep, threads []int, repeats int) {
	if len(s.Threads) == 0 {
		s.Threads = or(c.Threads, threads)
	}
	if s.Repeats == 0 {
		s.Repeats = c.Repeats
	}
	if s.Repeats == 0 {
		s.Repeats = repeats
	}
}

// applyDefaults 填充切片类参数，默认值与各实验最初的常量一致。
// 标量参数全部由 default 标签给出，显式写 0 的值原样保留。
func (c *Config) applyDefaults() {
	c.sweep(&c.MinMax.Sweep, []int{1, 2, 4, 8, 16}, 10)
	c.MinMax.Sizes = or(c.MinMax.Sizes, []int{10000, 100000, 1000000, 10000000})

	c.sweep(&c.Dot.Sweep, []int{1, 2, 4, 8, 12, 16}, 10)
	c.Dot.Sizes = or(c.Dot.Sizes, []int{10000, 100000, 1000000, 10000000})

	c.sweep(&c.Integral.Sweep, []int{1, 2, 4, 8, 16}, 10)
	c.Integral.Divisions = or(c.Integral.Divisions, []int{10000, 100000, 1000000})

	c.sweep(&c.MaxMin.Sweep, []int{1, 2, 4, 8, 16}, 10)
	c.MaxMin.Rows = or(c.MaxMin.Rows, []int{1000, 5000, 10000})

	c.sweep(&c.SchedMatrix.Sweep, []int{2, 4, 8}, 3)
	c.SchedMatrix.Sizes = or(c.SchedMatrix.Sizes, []int{1000, 2000, 3000})
	c.SchedMatrix.Schedules = or(c.SchedMatrix.Schedules, allSchedules)

	c.sweep(&c.Schedule.Sweep, []int{2, 4, 8}, 1)
	c.Schedule.Schedules = or(c.Schedule.Schedules, allSchedules)

	c.sweep(&c.Sync.Sweep, []int{2, 4, 8, 16}, 1)
	c.Sync.Sizes = or(c.Sync.Sizes, []int{10000, 100000, 1000000})

	c.sweep(&c.PairDot.Sweep, []int{2, 4, 8}, 1)
	c.PairDot.Counts = or(c.PairDot.Counts, []int{1000, 2000, 3000})
	c.PairDot.Dims = or(c.PairDot.Dims, []int{1000, 2000, 3000})

	c.sweep(&c.Nested.Sweep, []int{2, 4, 8, 16}, 1)
	c.Nested.Sizes = or(c.Nested.Sizes, []int{100, 500, 1000})
}

// validate 检查线程数、重复次数、各扫描尺寸和调度方式
func (c *Config) validate() error {
	sweeps := map[string]Sweep{
		"MinMax":      c.MinMax.Sweep,
		"Dot":         c.Dot.Sweep,
		"Integral":    c.Integral.Sweep,
		"MaxMin":      c.MaxMin.Sweep,
		"SchedMatrix": c.SchedMatrix.Sweep,
		"Schedule":    c.Schedule.Sweep,
		"Sync":        c.Sync.Sweep,
		"PairDot":     c.PairDot.Sweep,
		"Nested":      c.Nested.Sweep,
	}
	for name, s := range sweeps {
		for _, t := range s.Threads {
			if t <= 0 {
				return fmt.Errorf("%w: %s.Threads contains %d", ErrInvalidConfig, name, t)
			}
		}
		if s.Repeats <= 0 {
			return fmt.Errorf("%w: %s.Repeats = %d", ErrInvalidConfig, name, s.Repeats)
		}
	}
	sizes := map[string][]int{
		"MinMax.Sizes":       c.MinMax.Sizes,
		"Dot.Sizes":          c.Dot.Sizes,
		"Integral.Divisions": c.Integral.Divisions,
		"MaxMin.Rows":        c.MaxMin.Rows,
		"SchedMatrix.Sizes":  c.SchedMatrix.Sizes,
		"Sync.Sizes":         c.Sync.Sizes,
		"PairDot.Counts":     c.PairDot.Counts,
		"PairDot.Dims":       c.PairDot.Dims,
		"Nested.Sizes":       c.Nested.Sizes,
		"MaxMin.Cols":        {c.MaxMin.Cols},
	}
	for name, vs := range sizes {
		for _, v := range vs {
			if v < 1 {
				return fmt.Errorf("%w: %s contains %d", ErrInvalidConfig, name, v)
			}
		}
	}
	if c.Schedule.Iterations < 0 || c.SchedMatrix.BandWidth < 0 {
		return fmt.Errorf("%w: negative Schedule.Iterations or SchedMatrix.BandWidth", ErrInvalidConfig)
	}
	for _, s := range slices.Concat(c.SchedMatrix.Schedules, c.Schedule.Schedules) {
		if _, err := parallel.ParseSchedule(s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.Integral.B < c.Integral.A {
		return fmt.Errorf("%w: Integral.B < Integral.A", ErrInvalidConfig)
	}
	if c.MinMax.Max < c.MinMax.Min {
		return fmt.Errorf("%w: MinMax.Max < MinMax.Min", ErrInvalidConfig)
	}
	if c.PairDot.Format != "token" && c.PairDot.Format != "line" {
		return fmt.Errorf("%w: PairDot.Format %q", ErrInvalidConfig, c.PairDot.Format)
	}
	if c.Output.Format != "table" && c.Output.Format != "json" {
		return fmt.Errorf("%w: Output.Format %q", ErrInvalidConfig, c.Output.Format)
	}
	if len(c.Output.Kafka.Brokers) > 0 && c.Output.Kafka.Topic == "" {
		return fmt.Errorf("%w: Output.Kafka.Topic is required with brokers", ErrInvalidConfig)
	}
	return nil
}

func or[T any](v, def []T) []T {
	if len(v) == 0 {
		return def
	}
	return v
}
