package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestParseSchedule(t *testing.T) {
	for _, name := range []string{"static", "Dynamic", " guided "} {
		s, err := ParseSchedule(name)
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", name, err)
		}
		if s.String() == "" {
			t.Errorf("empty name for %q", name)
		}
	}
	if _, err := ParseSchedule("auto"); !errors.Is(err, ErrUnknownSchedule) {
		t.Fatalf("expected ErrUnknownSchedule, got %v", err)
	}
}

// 每个迭代恰好被执行一次
func TestForCoversEveryIterationOnce(t *testing.T) {
	cases := []Team{
		{Threads: 4, Schedule: Static},
		{Threads: 4, Schedule: Static, Chunk: 7},
		{Threads: 3, Schedule: Dynamic},
		{Threads: 3, Schedule: Dynamic, Chunk: 10},
		{Threads: 8, Schedule: Guided},
		{Threads: 8, Schedule: Guided, Chunk: 5},
		{Threads: 16, Schedule: Static},
		{},
	}
	for _, team := range cases {
		for _, n := range []int{1, 2, 15, 1000, 1023} {
			hits := make([]atomic.Int32, n)
			err := team.For(context.Background(), n, func(_, lo, hi int) {
				for i := lo; i < hi; i++ {
					hits[i].Add(1)
				}
			})
			if err != nil {
				t.Fatalf("%+v n=%d: %v", team, n, err)
			}
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Fatalf("%+v n=%d: iteration %d executed %d times", team, n, i, got)
				}
			}
		}
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	err := Team{Threads: 4}.For(context.Background(), 0, func(int, int, int) { called = true })
	if err != nil || called {
		t.Fatalf("n=0: err=%v called=%v", err, called)
	}
}

// static + chunk: 第 i 个 chunk 归 worker i%T
func TestForStaticRoundRobin(t *testing.T) {
	const threads, chunk, n = 3, 4, 50
	var mu sync.Mutex
	owner := make(map[int]int)
	err := Team{Threads: threads, Schedule: Static, Chunk: chunk}.For(context.Background(), n, func(w, lo, hi int) {
		mu.Lock()
		owner[lo/chunk] = w
		mu.Unlock()
		if hi-lo > chunk {
			t.Errorf("chunk [%d,%d) larger than %d", lo, hi, chunk)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	for c, w := range owner {
		if w != c%threads {
			t.Errorf("chunk %d ran on worker %d, want %d", c, w, c%threads)
		}
	}
}

func TestForGuidedChunkNeverBelowMinimum(t *testing.T) {
	const n, minChunk = 1000, 16
	var (
		mu    sync.Mutex
		total int
	)
	err := Team{Threads: 4, Schedule: Guided, Chunk: minChunk}.For(context.Background(), n, func(_, lo, hi int) {
		mu.Lock()
		defer mu.Unlock()
		total += hi - lo
		// 只有末尾那块可以小于 minChunk
		if hi != n && hi-lo < minChunk {
			t.Errorf("chunk [%d,%d) below minimum %d", lo, hi, minChunk)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != n {
		t.Fatalf("total = %d, want %d", total, n)
	}
}

func TestForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int32
	err := Team{Threads: 2, Schedule: Dynamic}.For(ctx, 1000, func(int, int, int) { ran.Add(1) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if ran.Load() != 0 {
		t.Errorf("ran %d chunks after cancel", ran.Load())
	}
}

func TestSectionsFirstError(t *testing.T) {
	sentinel := errors.New("section failed")
	err := Sections(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(context.Context) error { return sentinel },
	)
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
}
