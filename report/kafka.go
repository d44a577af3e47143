package report

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 每行发布一条消息：key 为实验名，value 为 JSON
type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

func (s *KafkaSink) Write(ctx context.Context, row Row) error {
	value, err := sonic.Marshal(row)
	if err != nil {
		return err
	}
	if err := s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(row.Experiment),
		Value: value,
		Time:  row.Time,
	}); err != nil {
		return fmt.Errorf("report: kafka: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error { return s.w.Close() }
