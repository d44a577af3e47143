package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrSourceUnavailable = errors.New("pipeline: source unavailable")
	ErrMalformedInput    = errors.New("pipeline: malformed input")
)

// Source 按顺序产出定长向量。Next 把下一个向量写入 dst（长度即维度），
// 正常读完返回 io.EOF。Source 只被生产者一个 goroutine 使用。
type Source interface {
	Next(dst []int64) error
	Close() error
}

// OpenFunc 打开一个新的 Source；同一个 OpenFunc 可多次调用，每次从头读起
type OpenFunc func() (Source, error)

// tokenSource 把输入看作空白分隔的整数流，每 dim 个整数组成一个向量
type tokenSource struct {
	sc     *bufio.Scanner
	closer io.Closer
}

// NewTokenSource 读取空白/换行分隔的整数流
func NewTokenSource(r io.Reader) Source {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenSource{sc: sc, closer: closerOf(r)}
}

func (s *tokenSource) Next(dst []int64) error {
	for i := range dst {
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return err
			}
			if i == 0 {
				return io.EOF
			}
			return fmt.Errorf("%w: truncated vector, %d of %d values", ErrMalformedInput, i, len(dst))
		}
		v, err := strconv.ParseInt(s.sc.Text(), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		dst[i] = v
	}
	return nil
}

func (s *tokenSource) Close() error { return s.closer.Close() }

// lineSource 每行一个向量，行内元素个数必须等于维度，空行跳过
type lineSource struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   int
}

// NewLineSource 读取按行组织的向量
func NewLineSource(r io.Reader) Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineSource{sc: sc, closer: closerOf(r)}
}

func (s *lineSource) Next(dst []int64) error {
	for s.sc.Scan() {
		s.line++
		fields := strings.Fields(s.sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(dst) {
			return fmt.Errorf("%w: line %d has %d values, want %d", ErrMalformedInput, s.line, len(fields), len(dst))
		}
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrMalformedInput, s.line, err)
			}
			dst[i] = v
		}
		return nil
	}
	if err := s.sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (s *lineSource) Close() error { return s.closer.Close() }

// sliceSource 内存中的向量序列
type sliceSource struct {
	vectors [][]int64
	pos     int
}

func (s *sliceSource) Next(dst []int64) error {
	if s.pos >= len(s.vectors) {
		return io.EOF
	}
	v := s.vectors[s.pos]
	if len(v) != len(dst) {
		return fmt.Errorf("%w: vector %d has %d values, want %d", ErrMalformedInput, s.pos, len(v), len(dst))
	}
	copy(dst, v)
	s.pos++
	return nil
}

func (s *sliceSource) Close() error { return nil }

// Vectors 返回一个从内存切片读取的 OpenFunc
func Vectors(vectors ...[]int64) OpenFunc {
	return func() (Source, error) {
		return &sliceSource{vectors: vectors}, nil
	}
}

// TokenFile 以整数流格式打开文件
func TokenFile(path string) OpenFunc {
	return func() (Source, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return NewTokenSource(f), nil
	}
}

// LineFile 以每行一个向量的格式打开文件
func LineFile(path string) OpenFunc {
	return func() (Source, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return NewLineSource(f), nil
	}
}

func closerOf(r io.Reader) io.Closer {
	if c, ok := r.(io.Closer); ok {
		return c
	}
	return io.NopCloser(nil)
}
