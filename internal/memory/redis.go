package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskpilot/taskpilot/config"
)

const (
	runKeyPrefix = "run:"
	runListKey   = "runs"
	runListCap   = 1000
)

// RedisStore persists run records in Redis: one JSON value per run plus a
// capped list of ids ordered newest first.
type RedisStore struct {
	client *redis.Client
}

// Conn connects to Redis and verifies the connection with a ping.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an established client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, runKeyPrefix+rec.ID, data, 0)
	pipe.LPush(ctx, runListKey, rec.ID)
	pipe.LTrim(ctx, runListKey, 0, runListCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	val, err := s.client.Get(ctx, runKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrRunNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Recent implements Store, newest first.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = runListCap
	}
	ids, err := s.client.LRange(ctx, runListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRunNotFound) {
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
