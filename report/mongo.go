package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type inserter interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoSink 每行写入一个文档
type MongoSink struct {
	coll   inserter
	client *mongo.Client
}

// DialMongo 连接 uri 并返回写入 database.collection 的 sink
func DialMongo(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("report: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("report: mongo ping: %w", err)
	}
	return &MongoSink{
		coll:   client.Database(database).Collection(collection),
		client: client,
	}, nil
}

func (s *MongoSink) Write(ctx context.Context, row Row) error {
	if _, err := s.coll.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("report: mongo insert: %w", err)
	}
	return nil
}

func (s *MongoSink) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
