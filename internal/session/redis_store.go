package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "easyathlete-profile||"

// RedisStore keeps one hash per profile. Every access slides the hash TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func redisProfileKey(profileID string) string {
	return redisKeyPrefix + profileID
}

func (s *RedisStore) Get(ctx context.Context, profileID string, key Key) (string, bool, error) {
	if profileID == "" {
		return "", false, ErrEmptyProfileID
	}

	profileKey := redisProfileKey(profileID)
	val, err := s.client.HGet(ctx, profileKey, string(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	if err := s.slideTTL(ctx, profileKey); err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, profileID string, key Key, value string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	profileKey := redisProfileKey(profileID)
	if err := s.client.HSet(ctx, profileKey, string(key), value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return s.slideTTL(ctx, profileKey)
}

func (s *RedisStore) slideTTL(ctx context.Context, profileKey string) error {
	if err := s.client.Expire(ctx, profileKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, profileID string, key Key) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if err := s.client.HDel(ctx, redisProfileKey(profileID), string(key)).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if err := s.client.Del(ctx, redisProfileKey(profileID)).Err(); err != nil {
		return fmt.Errorf("redis del profile: %w", err)
	}
	return nil
}

func (s *RedisStore) All(ctx context.Context, profileID string) (map[Key]string, error) {
	if profileID == "" {
		return nil, ErrEmptyProfileID
	}

	profileKey := redisProfileKey(profileID)
	vals, err := s.client.HGetAll(ctx, profileKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(vals) > 0 {
		if err := s.slideTTL(ctx, profileKey); err != nil {
			return nil, err
		}
	}

	res := make(map[Key]string, len(vals))
	for k, v := range vals {
		res[Key(k)] = v
	}
	return res, nil
}

// Close is a no-op; the redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
