package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var ErrInvalidShape = errors.New("dataset: invalid shape")

// WriteVectors 写出 n 行，每行 dim 个 0..9 的整数，空格分隔
func WriteVectors(w io.Writer, n, dim int, seed int64) error {
	if n < 0 || dim < 1 {
		return fmt.Errorf("%w: %d vectors of dimension %d", ErrInvalidShape, n, dim)
	}
	bw := bufio.NewWriter(w)
	r := newRand(seed, 0)
	buf := make([]byte, 0, 2*dim+1)
	for range n {
		buf = buf[:0]
		for j := range dim {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(r.IntN(10)), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteVectorFile 创建（或截断）path 并写入向量
func WriteVectorFile(path string, n, dim int, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	if err := WriteVectors(f, n, dim, seed); err != nil {
		f.Close()
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return f.Close()
}
