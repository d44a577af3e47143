package report

import (
	"context"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TableSink 以对齐的文本表格输出，每个实验一张表
type TableSink struct {
	mu      sync.Mutex
	tw      *tabwriter.Writer
	p       *message.Printer
	current string
}

func NewTableSink(w io.Writer) *TableSink {
	return &TableSink{
		tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight),
		p:  message.NewPrinter(language.English),
	}
}

func (s *TableSink) Write(_ context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.Experiment != s.current {
		if s.current != "" {
			if err := s.tw.Flush(); err != nil {
				return err
			}
			s.p.Fprintln(s.tw)
		}
		s.current = row.Experiment
		s.writeHeader(row)
	}

	cells := make([]string, 0, len(row.Params)+2)
	for _, p := range row.Params {
		cells = append(cells, s.cell(p.Value))
	}
	cells = append(cells, s.p.Sprintf("%.6f", row.Seconds), s.cell(row.Result))
	_, err := s.p.Fprintln(s.tw, strings.Join(cells, "\t")+"\t")
	return err
}

func (s *TableSink) writeHeader(row Row) {
	names := make([]string, 0, len(row.Params)+2)
	for _, p := range row.Params {
		names = append(names, p.Key)
	}
	names = append(names, "time (s)", "result")
	s.p.Fprintf(s.tw, "== %s\n", row.Experiment)
	s.p.Fprintln(s.tw, strings.Join(names, "\t")+"\t")
}

// cell 整数按千分位分组，浮点保留有效数字
func (s *TableSink) cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case int, int32, int64, uint, uint32, uint64:
		return s.p.Sprintf("%d", x)
	case float32, float64:
		return s.p.Sprintf("%.6g", x)
	default:
		return s.p.Sprint(x)
	}
}

// Close 刷出剩余的表格内容
func (s *TableSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tw.Flush()
}
