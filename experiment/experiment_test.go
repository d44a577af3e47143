package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/zeromicro/go-zero/core/logx"

	"go-parallel-notes/config"
	"go-parallel-notes/dataset"
	"go-parallel-notes/parallel"
	"go-parallel-notes/pipeline"
	"go-parallel-notes/report"
)

func TestMain(m *testing.M) {
	logx.Disable()
	os.Exit(m.Run())
}

var teams = []parallel.Team{
	{Threads: 1},
	{Threads: 3},
	{Threads: 4, Schedule: parallel.Dynamic, Chunk: 7},
	{Threads: 8, Schedule: parallel.Guided, Chunk: 5},
}

func TestMinMaxMethodsAgree(t *testing.T) {
	vec := dataset.RandomInts(10007, -500, 500, 3)
	want := MinMax{Min: slices.Min(vec), Max: slices.Max(vec)}
	ctx := context.Background()
	for _, team := range teams {
		for name, fn := range map[string]func(context.Context, parallel.Team, []int64) (MinMax, error){
			"reduction": MinMaxReduction,
			"critical":  MinMaxCritical,
		} {
			got, err := fn(ctx, team, vec)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("%s threads=%d: got %v, want %v", name, team.Threads, got, want)
			}
		}
	}
}

func TestDotProduct(t *testing.T) {
	const n = 10007
	a, b := dataset.Filled(n, 1), dataset.Filled(n, 2)
	for _, team := range teams {
		got, err := DotProduct(context.Background(), team, a, b)
		if err != nil {
			t.Fatal(err)
		}
		if got != 2*n {
			t.Errorf("threads=%d: got %v, want %v", team.Threads, got, 2*n)
		}
	}
	if _, err := DotProduct(context.Background(), teams[0], a, b[:10]); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestIntegral(t *testing.T) {
	for _, team := range teams {
		got, err := Integral(context.Background(), team, cube, 0, 1, 100000)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-0.25) > 1e-8 {
			t.Errorf("threads=%d: got %v, want 0.25", team.Threads, got)
		}
	}
	if got, _ := Integral(context.Background(), teams[0], cube, 0, 1, 0); got != 0 {
		t.Errorf("zero divisions: got %v", got)
	}
}

func TestMaxOfRowMins(t *testing.T) {
	m := [][]float64{
		{5, 3, 9},
		{7, 8, 6},
		{1, 2, 0},
	}
	for _, workers := range []int{1, 2, 8} {
		got, err := MaxOfRowMins(context.Background(), workers, m)
		if err != nil {
			t.Fatal(err)
		}
		if got != 6 {
			t.Errorf("workers=%d: got %v, want 6", workers, got)
		}
	}

	big := dataset.RandomMatrix(300, 40, 0, 1000, 9)
	want := math.Inf(-1)
	for _, row := range big {
		want = max(want, slices.Min(row))
	}
	got, err := MaxOfRowMins(context.Background(), 4, big)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMaxOfNonZeroRowMins(t *testing.T) {
	band := dataset.BandMatrix(200, 200, 5, 2)
	tri := dataset.LowerTriangular(200, 200, 2)
	for _, m := range [][][]float64{band, tri} {
		want := math.Inf(-1)
		for _, row := range m {
			want = max(want, rowMinNonZero(row))
		}
		for _, team := range teams {
			got, err := MaxOfNonZeroRowMins(context.Background(), team, m)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("schedule=%s: got %v, want %v", team.Schedule, got, want)
			}
		}
	}

	// 全 0 的行最小值为 +Inf，结果也就是 +Inf
	got, err := MaxOfNonZeroRowMins(context.Background(), teams[1], [][]float64{{0, 0}, {3, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("got %v, want +Inf", got)
	}
}

func TestSumMethodsAgree(t *testing.T) {
	vec := dataset.RandomInts(20000, 0, 99, 5)
	var want int64
	for _, v := range vec {
		want += v
	}
	for _, team := range teams {
		for _, m := range sumMethods {
			got, err := m.fn(context.Background(), team, vec)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("%s threads=%d: got %d, want %d", m.name, team.Threads, got, want)
			}
		}
	}
}

func TestUnevenLoopSchedulesAgree(t *testing.T) {
	costs := dataset.RandomInts(2000, 1, 1000, 4)
	var want float64
	for _, c := range costs {
		want += heavy(c)
	}
	for _, team := range teams {
		got, err := UnevenLoop(context.Background(), team, costs)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-9*want {
			t.Errorf("schedule=%s: got %v, want %v", team.Schedule, got, want)
		}
	}
}

func TestNestedMatchesFlat(t *testing.T) {
	m := dataset.RandomIntMatrix(120, 120, 0, 99, 6)
	for _, team := range teams {
		flat, err := MaxOfMinsFlat(context.Background(), team, m)
		if err != nil {
			t.Fatal(err)
		}
		nested, err := MaxOfMinsNested(context.Background(), team, m)
		if err != nil {
			t.Fatal(err)
		}
		if flat != nested {
			t.Errorf("threads=%d: flat %d, nested %d", team.Threads, flat, nested)
		}
	}
}

func TestNestedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := dataset.RandomIntMatrix(50, 50, 0, 99, 6)
	if _, err := MaxOfMinsNested(ctx, parallel.Team{Threads: 2}, m); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		got, want []int64
		err       error
		verdict   string
	}{
		{[]int64{1, 2}, []int64{1, 2}, nil, Match},
		{[]int64{1}, []int64{1, 2}, nil, NoMatch},
		{nil, nil, pipeline.ErrSourceUnavailable, NoResults},
		{[]int64{1}, []int64{1}, pipeline.ErrMalformedInput, NoMatch},
	}
	for _, tt := range tests {
		if v := Verdict(tt.got, tt.want, tt.err); v != tt.verdict {
			t.Errorf("Verdict(%v, %v, %v) = %q, want %q", tt.got, tt.want, tt.err, v, tt.verdict)
		}
	}
}

func TestPairDot(t *testing.T) {
	path := filepath.Join(t.TempDir(), vectorsFile)
	if err := dataset.WriteVectorFile(path, 30, 8, 1); err != nil {
		t.Fatal(err)
	}
	for _, format := range []string{"token", "line"} {
		_, _, verdict, err := PairDot(context.Background(), pipeline.New(8), openVectors(format, path), 8, 30)
		if err != nil {
			t.Fatal(err)
		}
		if verdict != Match {
			t.Errorf("%s: verdict %q, want %q", format, verdict, Match)
		}
	}

	missing := filepath.Join(t.TempDir(), "missing.txt")
	_, _, verdict, err := PairDot(context.Background(), pipeline.New(8), openVectors("token", missing), 8, 30)
	if err != nil {
		t.Fatal(err)
	}
	if verdict != NoResults {
		t.Errorf("missing file: verdict %q, want %q", verdict, NoResults)
	}
}

func TestLookup(t *testing.T) {
	exps, err := Lookup("pairdot", " minmax ")
	if err != nil {
		t.Fatal(err)
	}
	if len(exps) != 2 || exps[0].Name != "minmax" || exps[1].Name != "pairdot" {
		t.Fatalf("got %v", exps)
	}
	if all, _ := Lookup(); len(all) != len(registry) {
		t.Fatalf("Lookup() returned %d experiments, want %d", len(all), len(registry))
	}
	if _, err := Lookup("fft"); !errors.Is(err, ErrUnknownExperiment) {
		t.Fatalf("err = %v, want ErrUnknownExperiment", err)
	}
}

func TestRunAll(t *testing.T) {
	c, err := config.Parse(fmt.Appendf(nil, `
Threads: [2]
Repeats: 1
MinMax:
  Sizes: [1000]
Dot:
  Sizes: [1000]
Integral:
  Divisions: [1000]
MaxMin:
  Rows: [50]
  Cols: 20
SchedMatrix:
  Sizes: [30]
Schedule:
  Iterations: 100
Sync:
  Sizes: [1000]
PairDot:
  Counts: [10]
  Dims: [4]
  Dir: %q
Nested:
  Sizes: [20]
`, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	mem := &report.Memory{}
	env := NewEnv(c, mem)
	if err := RunAll(context.Background(), env, All()); err != nil {
		t.Fatal(err)
	}

	counts := make(map[string]int)
	for _, row := range mem.Rows {
		counts[row.Experiment]++
		if row.RunID != env.RunID {
			t.Errorf("row %s has run id %q, want %q", row.Experiment, row.RunID, env.RunID)
		}
	}
	want := map[string]int{
		"minmax":      2,
		"dot":         1,
		"integral":    1,
		"maxmin":      1,
		"schedmatrix": 6,
		"schedule":    3,
		"syncsum":     5,
		"pairdot":     1,
		"nested":      2,
	}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("%s: %d rows, want %d", name, counts[name], n)
		}
	}
	for _, row := range mem.Rows {
		if row.Experiment == "pairdot" && row.Result != Match {
			t.Errorf("pairdot result %v, want %q", row.Result, Match)
		}
		if row.Experiment == "dot" && row.Result != 2000.0 {
			t.Errorf("dot result %v, want 2000", row.Result)
		}
	}
}

func TestPairDotBadDimensionIsRowLocal(t *testing.T) {
	c := config.Default()
	c.PairDot.Counts = []int{10}
	c.PairDot.Dims = []int{-1, 4}
	c.PairDot.Threads = []int{2}
	c.PairDot.Dir = t.TempDir()

	mem := &report.Memory{}
	exps, err := Lookup("pairdot")
	if err != nil {
		t.Fatal(err)
	}
	if err := RunAll(context.Background(), NewEnv(c, mem), exps); err != nil {
		t.Fatal(err)
	}
	if len(mem.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(mem.Rows))
	}
	failed, ok := mem.Rows[0].Result.(string)
	if !ok || !strings.HasPrefix(failed, "failed:") {
		t.Errorf("dim -1 result = %v, want a failed row", mem.Rows[0].Result)
	}
	if mem.Rows[1].Result != Match {
		t.Errorf("dim 4 result = %v, want %q", mem.Rows[1].Result, Match)
	}

	keys := func(ps []report.Param) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Key)
		}
		return out
	}
	if a, b := keys(mem.Rows[0].Params), keys(mem.Rows[1].Params); !slices.Equal(a, b) {
		t.Errorf("param keys differ between rows: %v vs %v", a, b)
	}
}

func TestRunFromShippedConfig(t *testing.T) {
	c, err := config.Load(filepath.Join("..", "etc", "ompbench.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	c.PairDot.Counts = []int{20}
	c.PairDot.Dims = []int{5}
	c.PairDot.Dir = t.TempDir()

	exps, err := Lookup("pairdot")
	if err != nil {
		t.Fatal(err)
	}
	mem := &report.Memory{}
	if err := RunAll(context.Background(), NewEnv(c, mem), exps); err != nil {
		t.Fatal(err)
	}
	if len(mem.Rows) != len(c.PairDot.Threads) {
		t.Fatalf("got %d rows, want one per thread count %v", len(mem.Rows), c.PairDot.Threads)
	}
	for _, row := range mem.Rows {
		if row.Result != Match {
			t.Errorf("params %v: result %v, want %q", row.Params, row.Result, Match)
		}
	}
}

func TestRunAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env := NewEnv(config.Default(), &report.Memory{})
	if err := RunAll(ctx, env, All()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

/*
执行命令:

	go test -run '^$' -bench '^BenchmarkSum' -benchmem .

预期结论:
 1. reduction 每个 worker 只在本地累加，几乎没有同步开销
 2. atomic 次之，critical / lock / spinlock 在线程数增加后争用明显
*/

func benchmarkSum(b *testing.B, fn func(context.Context, parallel.Team, []int64) (int64, error)) {
	vec := dataset.RandomInts(100000, 0, 99, 1)
	team := parallel.Team{Threads: 4}
	ctx := context.Background()
	for b.Loop() {
		if _, err := fn(ctx, team, vec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSumAtomic(b *testing.B)    { benchmarkSum(b, SumAtomic) }
func BenchmarkSumCritical(b *testing.B)  { benchmarkSum(b, SumCritical) }
func BenchmarkSumLock(b *testing.B)      { benchmarkSum(b, SumLock) }
func BenchmarkSumSpinLock(b *testing.B)  { benchmarkSum(b, SumSpinLock) }
func BenchmarkSumReduction(b *testing.B) { benchmarkSum(b, SumReduction) }
