package report

import (
	"context"
	"io"
	"sync"

	"github.com/bytedance/sonic"
)

// JSONSink 每行输出一个 JSON 对象（JSON Lines）
type JSONSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

func (s *JSONSink) Write(_ context.Context, row Row) error {
	data, err := sonic.Marshal(row)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}

func (s *JSONSink) Close() error { return nil }
