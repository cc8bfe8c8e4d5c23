package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/makomweb/request-batcher/pkg/batch"
)

// StreamAdder is the subset of the go-redis client used by the Redis sink.
// *redis.Client and *redis.ClusterClient satisfy it.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends every batch to a Redis stream.
type RedisSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedis creates a Redis stream sink. maxLen caps the stream
// approximately; zero leaves it unbounded.
func NewRedis(client StreamAdder, stream string, maxLen int64) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("redis sink: client is required")
	}
	if stream == "" {
		return nil, errors.New("redis sink: stream name is required")
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}, nil
}

// NewRedisClient opens a go-redis client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Process implements batch.ProcessFunc. The stream entry ID is the batch
// result.
func (s *RedisSink) Process(ctx context.Context, req batch.Request[string]) (string, error) {
	items, err := json.Marshal(req.Items())
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"batch_id": req.BatchID().String(),
			"items":    string(items),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return id, nil
}
