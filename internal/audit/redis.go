package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream audit entries land on unless configured.
const DefaultStream = "docledger:audit"

// RedisSink appends entries to a Redis stream via XADD. Streams give the
// audit log its externally observable, append-only shape: consumers read
// with XRANGE/XREAD and entries are never rewritten.
type RedisSink struct {
	client *redis.Client
	stream string
}

// NewRedisSink creates a sink writing to the named stream. Stream may be
// empty, in which case DefaultStream is used.
func NewRedisSink(client *redis.Client, stream string) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream}
}

func (s *RedisSink) Append(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"kind":  string(e.Kind()),
			"entry": string(b),
		},
	}).Err()
}
