package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ArbPilot/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// RedisStreamSource reads signal entries from Redis Streams. Stream ids are
// assigned by Redis and increase monotonically per stream, which gives the
// supervisor its ascending-id guarantee for free.
type RedisStreamSource struct {
	client *redis.Client
}

// NewRedisStreamSource creates a stream source backed by the shared client.
func NewRedisStreamSource(client *redis.Client) *RedisStreamSource {
	return &RedisStreamSource{client: client}
}

// ReadAfter returns up to count entries with id greater than afterID,
// blocking at most block. The "$" sentinel yields only entries appended after
// the call. A nil result with nil error means no new entries arrived.
func (s *RedisStreamSource) ReadAfter(ctx context.Context, stream, afterID string, count int64, block time.Duration) ([]models.SignalEntry, error) {
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, afterID},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xread %s: %w", stream, err)
	}

	var entries []models.SignalEntry
	for _, st := range res {
		for _, msg := range st.Messages {
			entries = append(entries, toSignalEntry(stream, msg))
		}
	}
	return entries, nil
}

func toSignalEntry(stream string, msg redis.XMessage) models.SignalEntry {
	payload := make(map[string]string, len(msg.Values))
	for k, v := range msg.Values {
		payload[k] = fmt.Sprint(v)
	}
	return models.SignalEntry{
		ID:      msg.ID,
		Stream:  stream,
		Payload: payload,
	}
}
