package main

import (
	"context"
	"errors"
	"io"

	"go-parallel-notes/config"
	"go-parallel-notes/report"
)

// newSink 按配置组合输出：stdout 上的表格或 JSON，外加可选的 kafka、mongo
func newSink(ctx context.Context, c config.OutputConf, stdout io.Writer) (report.Sink, error) {
	var sinks report.Multi
	switch c.Format {
	case "json":
		sinks = append(sinks, report.NewJSONSink(stdout))
	default:
		sinks = append(sinks, report.NewTableSink(stdout))
	}

	if len(c.Kafka.Brokers) > 0 {
		sinks = append(sinks, report.NewKafkaSink(c.Kafka.Brokers, c.Kafka.Topic))
	}
	if c.Mongo.URI != "" {
		m, err := report.DialMongo(ctx, c.Mongo.URI, c.Mongo.Database, c.Mongo.Collection)
		if err != nil {
			return nil, errors.Join(err, sinks.Close())
		}
		sinks = append(sinks, m)
	}
	return sinks, nil
}
