package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Param 一个配置参数，按实验给出的顺序输出
type Param struct {
	Key   string `json:"key" bson:"key"`
	Value any    `json:"value" bson:"value"`
}

// Row 一次测量结果：配置参数、平均耗时（秒）和计算结果
type Row struct {
	RunID      string    `json:"runId" bson:"runId"`
	Experiment string    `json:"experiment" bson:"experiment"`
	Params     []Param   `json:"params" bson:"params"`
	Seconds    float64   `json:"seconds" bson:"seconds"`
	Result     any       `json:"result" bson:"result"`
	Time       time.Time `json:"time" bson:"time"`
}

// Params 把 key, value, key, value... 组装成有序参数列表
func Params(kv ...any) []Param {
	ps := make([]Param, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		ps = append(ps, Param{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return ps
}

// NewRunID 为一次完整的运行生成唯一标识，同一次运行的所有行共享
func NewRunID() string {
	return uuid.NewString()
}

// Sink 接收测量结果
type Sink interface {
	Write(ctx context.Context, row Row) error
	Close() error
}

// Multi 把每一行写到所有 sink，错误合并返回
type Multi []Sink

func (m Multi) Write(ctx context.Context, row Row) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory 把结果留在内存里，主要给测试用
type Memory struct {
	Rows []Row
}

func (m *Memory) Write(_ context.Context, row Row) error {
	m.Rows = append(m.Rows, row)
	return nil
}

func (m *Memory) Close() error { return nil }
