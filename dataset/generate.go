package dataset

import (
	"math/rand/v2"

	"github.com/grailbio/base/traverse"
)

// 每个 chunk 用 (seed, chunk编号) 单独播种，结果与并发度无关，同一 seed 可复现
const chunkSize = 1 << 14

func newRand(seed int64, stream int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(stream)))
}

// RandomInts 生成 n 个 [lo, hi] 内均匀分布的整数
func RandomInts(n int, lo, hi, seed int64) []int64 {
	out := make([]int64, n)
	if n == 0 {
		return out
	}
	span := hi - lo + 1
	chunks := (n + chunkSize - 1) / chunkSize
	_ = traverse.Each(chunks, func(c int) error {
		r := newRand(seed, c)
		end := min((c+1)*chunkSize, n)
		for i := c * chunkSize; i < end; i++ {
			out[i] = lo + r.Int64N(span)
		}
		return nil
	})
	return out
}

// Filled 返回长度为 n、所有元素都为 v 的向量
func Filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// fillRows 按行并行生成，第 i 行由 fill(i, row, r) 填充
func fillRows[T any](rows, cols int, seed int64, fill func(i int, row []T, r *rand.Rand)) [][]T {
	m := make([][]T, rows)
	_ = traverse.Each(rows, func(i int) error {
		row := make([]T, cols)
		fill(i, row, newRand(seed, i))
		m[i] = row
		return nil
	})
	return m
}

// RandomIntMatrix 生成 rows x cols 的整数矩阵，元素在 [lo, hi]
func RandomIntMatrix(rows, cols int, lo, hi, seed int64) [][]int64 {
	span := hi - lo + 1
	return fillRows(rows, cols, seed, func(_ int, row []int64, r *rand.Rand) {
		for j := range row {
			row[j] = lo + r.Int64N(span)
		}
	})
}

// RandomMatrix 同 RandomIntMatrix，但元素类型为 float64（取整数值）
func RandomMatrix(rows, cols int, lo, hi, seed int64) [][]float64 {
	span := hi - lo + 1
	return fillRows(rows, cols, seed, func(_ int, row []float64, r *rand.Rand) {
		for j := range row {
			row[j] = float64(lo + r.Int64N(span))
		}
	})
}

// BandMatrix 只有 |i-j| <= band 的位置非零，取值 1..100
func BandMatrix(rows, cols, band int, seed int64) [][]float64 {
	return fillRows(rows, cols, seed, func(i int, row []float64, r *rand.Rand) {
		for j := max(0, i-band); j <= min(cols-1, i+band); j++ {
			row[j] = float64(r.IntN(100) + 1)
		}
	})
}

// LowerTriangular 只有 j <= i 的位置非零，取值 1..100
func LowerTriangular(rows, cols int, seed int64) [][]float64 {
	return fillRows(rows, cols, seed, func(i int, row []float64, r *rand.Rand) {
		for j := 0; j <= min(i, cols-1); j++ {
			row[j] = float64(r.IntN(100) + 1)
		}
	})
}
