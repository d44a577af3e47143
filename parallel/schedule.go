package parallel

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Schedule 决定循环迭代如何分配给 worker
type Schedule int

const (
	// Static 预先按 chunk 轮转分配，Chunk<=0 时每个 worker 分得一段连续区间
	Static Schedule = iota
	// Dynamic worker 每次从共享游标领取 Chunk 个迭代
	Dynamic
	// Guided 每次领取 剩余/线程数 个迭代，但不少于 Chunk
	Guided
)

var ErrUnknownSchedule = errors.New("parallel: unknown schedule")

var scheduleNames = [...]string{
	Static:  "static",
	Dynamic: "dynamic",
	Guided:  "guided",
}

func (s Schedule) String() string {
	if s < 0 || int(s) >= len(scheduleNames) {
		return fmt.Sprintf("Schedule(%d)", int(s))
	}
	return scheduleNames[s]
}

// ParseSchedule 解析 static / dynamic / guided（忽略大小写）
func ParseSchedule(name string) (Schedule, error) {
	for i, n := range scheduleNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Schedule(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSchedule, name)
}

// chunkIter 返回下一个 [lo, hi) 区间，ok=false 表示没有剩余迭代
type chunkIter func() (lo, hi int, ok bool)

// dispatcher 为每个 worker 构造迭代器；dynamic/guided 的游标在所有 worker 间共享
func dispatcher(s Schedule, n, threads, chunk int) func(worker int) chunkIter {
	switch s {
	case Dynamic:
		if chunk <= 0 {
			chunk = 1
		}
		var cursor atomic.Int64
		return func(int) chunkIter {
			return func() (int, int, bool) {
				lo := int(cursor.Add(int64(chunk))) - chunk
				if lo >= n {
					return 0, 0, false
				}
				return lo, min(lo+chunk, n), true
			}
		}
	case Guided:
		if chunk <= 0 {
			chunk = 1
		}
		var cursor atomic.Int64
		return func(int) chunkIter {
			return func() (int, int, bool) {
				for {
					cur := cursor.Load()
					if cur >= int64(n) {
						return 0, 0, false
					}
					size := max((n-int(cur))/threads, chunk)
					next := min(int(cur)+size, n)
					if cursor.CompareAndSwap(cur, int64(next)) {
						return int(cur), next, true
					}
				}
			}
		}
	default:
		if chunk <= 0 {
			size := (n + threads - 1) / threads
			return func(worker int) chunkIter {
				lo, taken := worker*size, false
				return func() (int, int, bool) {
					if taken || lo >= n {
						return 0, 0, false
					}
					taken = true
					return lo, min(lo+size, n), true
				}
			}
		}
		return func(worker int) chunkIter {
			k := worker
			return func() (int, int, bool) {
				lo := k * chunk
				if lo >= n {
					return 0, 0, false
				}
				k += threads
				return lo, min(lo+chunk, n), true
			}
		}
	}
}
