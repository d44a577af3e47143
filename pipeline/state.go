package pipeline

import "sync"

// slot 一对待归约的向量，容量在创建时分配，整个运行期间复用
type slot struct {
	left, right       []int64
	hasLeft, hasRight bool
}

func (s *slot) full() bool { return s.hasLeft && s.hasRight }

func (s *slot) clear() { s.hasLeft, s.hasRight = false, false }

// State 是生产者和消费者共享的监视器：两个 slot、当前填充侧、完成标志和中止错误。
// 所有字段只在持有 mu 时读写，两端都在同一个 cond 上等待。
type State struct {
	mu     sync.Mutex
	cond   *sync.Cond
	slots  [2]slot
	active int
	done   bool
	err    error

	// onTake 在消费者取走一对向量前调用（持锁），参数为当前满 slot 数
	onTake func(full int)
}

// NewState 为 dim 维向量分配两个 slot，dim < 0 按 0 处理
func NewState(dim int) *State {
	dim = max(dim, 0)
	s := &State{}
	s.cond = sync.NewCond(&s.mu)
	for i := range s.slots {
		s.slots[i].left = make([]int64, dim)
		s.slots[i].right = make([]int64, dim)
	}
	return s
}

// Reset 清空 slot 和标志，供下一次运行复用
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		s.slots[i].clear()
	}
	s.active, s.done, s.err = 0, false, nil
}

// Deposit 把 v 拷进当前填充侧的 slot。second=true 表示这是一对中的第二个向量：
// 此时翻转填充侧、通知消费者，并阻塞到消费者清空该 slot（或运行被中止）。
func (s *State) Deposit(v []int64, second bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	sl := &s.slots[s.active]
	if !second {
		copy(sl.left, v)
		sl.hasLeft = true
		return nil
	}
	copy(sl.right, v)
	sl.hasRight = true
	s.active ^= 1
	s.cond.Broadcast()
	for sl.full() && s.err == nil {
		s.cond.Wait()
	}
	return s.err
}

// Finish 标记数据源已读完，不等待
func (s *State) Finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Abort 以 err 中止运行并唤醒双方，只保留第一个错误
func (s *State) Abort(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *State) fullSlots() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].full() {
			n++
		}
	}
	return n
}

// Take 阻塞到有满 slot、完成或中止。有满 slot 时对其调用 fn，清空后通知生产者并返回 true；
// 完成且没有满 slot 时返回 false；中止时返回中止错误。
func (s *State) Take(fn func(left, right []int64)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.err == nil && !s.done && s.fullSlots() == 0 {
		s.cond.Wait()
	}
	if s.err != nil {
		return false, s.err
	}
	// 生产者填满后已经翻转，待消费的是非当前填充侧
	sl := &s.slots[s.active^1]
	if !sl.full() {
		return false, nil
	}
	if s.onTake != nil {
		s.onTake(s.fullSlots())
	}
	fn(sl.left, sl.right)
	sl.clear()
	s.cond.Broadcast()
	return true, nil
}
