package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jtolonen/stroll/pkg/api"
)

// RedisStore is a RecordStore backed by Redis. It uses a simple key
// structure:
//
//	<prefix>completed           => SET of completed tour ids
//	<prefix>skipped             => SET of skipped tour ids
//	<prefix>last_completed_at   => RFC 3339 timestamp string
//
// Sets (rather than one serialized blob) let several hosts sharing the same
// Redis converge on the union of finished tours without read-modify-write
// races on individual completions.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ RecordStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. prefix is optional but recommended
// (e.g. "stroll:user42:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "stroll:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) keyCompleted() string {
	return s.prefix + "completed"
}

func (s *RedisStore) keySkipped() string {
	return s.prefix + "skipped"
}

func (s *RedisStore) keyLastCompletedAt() string {
	return s.prefix + "last_completed_at"
}

func (s *RedisStore) Load() (api.Record, error) {
	ctx := context.Background()

	completed, err := s.client.SMembers(ctx, s.keyCompleted()).Result()
	if err != nil {
		return api.Record{}, err
	}
	skipped, err := s.client.SMembers(ctx, s.keySkipped()).Result()
	if err != nil {
		return api.Record{}, err
	}

	rec := api.Record{
		Completed: completed,
		Skipped:   skipped,
	}

	tsStr, err := s.client.Get(ctx, s.keyLastCompletedAt()).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// No completion recorded yet.
	case err != nil:
		return api.Record{}, err
	default:
		t, perr := time.Parse(time.RFC3339, tsStr)
		if perr == nil {
			rec.LastCompletedAt = &t
		}
	}

	if len(rec.Completed) == 0 && len(rec.Skipped) == 0 && rec.LastCompletedAt == nil {
		return api.Record{}, ErrRecordNotFound
	}
	return Normalize(rec), nil
}

func (s *RedisStore) Save(rec api.Record) error {
	rec = Normalize(rec)
	ctx := context.Background()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keyCompleted(), s.keySkipped(), s.keyLastCompletedAt())
	if len(rec.Completed) > 0 {
		pipe.SAdd(ctx, s.keyCompleted(), toAnySlice(rec.Completed)...)
	}
	if len(rec.Skipped) > 0 {
		pipe.SAdd(ctx, s.keySkipped(), toAnySlice(rec.Skipped)...)
	}
	if rec.LastCompletedAt != nil {
		pipe.Set(ctx, s.keyLastCompletedAt(), rec.LastCompletedAt.UTC().Format(time.RFC3339), 0)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
