package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type redisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(addr, password string, db int) (SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &redisSessionStore{client: client}, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, userID int, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, strconv.Itoa(userID), ttl).Err()
}

func (s *redisSessionStore) Fetch(ctx context.Context, sessionID string) (int, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("fetching session: %w", err)
	}
	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("decoding session value: %w", err)
	}
	return userID, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *redisSessionStore) Close() error {
	return s.client.Close()
}
