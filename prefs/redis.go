package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps preferences as a JSON value and words as a set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

const defaultRedisPrefix = "proofline:"

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ""), nil
}

// NewRedisStoreWithClient wraps an existing client. An empty prefix means
// "proofline:".
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) prefsKey() string { return s.prefix + "prefs" }
func (s *RedisStore) wordsKey() string { return s.prefix + "words" }

func (s *RedisStore) Load(ctx context.Context) (Preferences, error) {
	data, err := s.client.Get(ctx, s.prefsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Default(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load prefs: %w", err)
	}
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("decode prefs: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := s.client.Set(ctx, s.prefsKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}

func (s *RedisStore) LearnWord(ctx context.Context, word string) error {
	w := Normalize(word)
	if w == "" {
		return ErrEmptyWord
	}
	if err := s.client.SAdd(ctx, s.wordsKey(), w).Err(); err != nil {
		return fmt.Errorf("learn word: %w", err)
	}
	return nil
}

func (s *RedisStore) Words(ctx context.Context) ([]string, error) {
	words, err := s.client.SMembers(ctx, s.wordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	slices.Sort(words)
	return words, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
