package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	searchTTL      = 30 * 24 * time.Hour
	presenceKey    = "presence"
	presenceWindow = 90 * time.Second
)

// RedisStore handles Redis operations for search indexing, presence
// tracking and rate limiting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an already-configured client. Useful
// when the caller manages the client's lifecycle, and in tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying client for middleware that needs it.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// searchWordKey returns the key for a search word index.
func searchWordKey(word string) string {
	return fmt.Sprintf("search:words:%s", strings.ToLower(word))
}

// wordRegex matches word characters for search indexing.
var wordRegex = regexp.MustCompile(`\w+`)

// IndexTask indexes a task title for search. Best-effort: callers
// ignore failures, the authoritative record lives in the database.
func (s *RedisStore) IndexTask(ctx context.Context, taskID uuid.UUID, title string) error {
	words := wordRegex.FindAllString(strings.ToLower(title), -1)

	seen := make(map[string]bool)
	now := time.Now().UnixMilli()
	for _, word := range words {
		if len(word) < 3 || seen[word] {
			continue
		}
		seen[word] = true

		key := searchWordKey(word)
		s.client.ZAdd(ctx, key, redis.Z{
			Score:  float64(now),
			Member: taskID.String(),
		})
		s.client.Expire(ctx, key, searchTTL)
	}

	return nil
}

// SearchTasks returns the IDs of tasks whose titles contain all query
// words, most recently indexed first.
func (s *RedisStore) SearchTasks(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	tokens := wordRegex.FindAllString(strings.ToLower(query), -1)
	var keep []string
	for _, t := range tokens {
		if len(t) >= 3 {
			keep = append(keep, t)
		}
	}
	if len(keep) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var refs []string

	if len(keep) == 1 {
		var err error
		refs, err = s.client.ZRevRange(ctx, searchWordKey(keep[0]), 0, int64(limit)-1).Result()
		if err != nil {
			return nil, err
		}
	} else {
		keys := make([]string, len(keep))
		for i, t := range keep {
			keys[i] = searchWordKey(t)
		}

		tempKey := fmt.Sprintf("search:temp:%d", time.Now().UnixNano())
		s.client.ZInterStore(ctx, tempKey, &redis.ZStore{
			Keys:      keys,
			Aggregate: "MAX",
		})
		s.client.Expire(ctx, tempKey, 10*time.Second)

		var err error
		refs, err = s.client.ZRevRange(ctx, tempKey, 0, int64(limit)-1).Result()
		s.client.Del(ctx, tempKey)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Heartbeat records that a participant is online right now.
func (s *RedisStore) Heartbeat(ctx context.Context, userID string) error {
	return s.client.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: userID,
	}).Err()
}

// ClearPresence removes a participant from the presence set.
func (s *RedisStore) ClearPresence(ctx context.Context, userID string) error {
	return s.client.ZRem(ctx, presenceKey, userID).Err()
}

// CountOnline returns how many participants heartbeated recently.
func (s *RedisStore) CountOnline(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-presenceWindow).UnixMilli()

	s.client.ZRemRangeByScore(ctx, presenceKey, "-inf", fmt.Sprintf("%d", cutoff))

	return s.client.ZCount(ctx, presenceKey, fmt.Sprintf("%d", cutoff), "+inf").Result()
}
