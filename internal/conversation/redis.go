package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conversation:"

// RedisClient is the subset of *redis.Client the repository uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRepository stores each conversation as a JSON value that expires
// ttl after its last write.
type RedisRepository struct {
	rdb RedisClient
	ttl time.Duration
}

func NewRedisRepository(rdb RedisClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects using a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", models.ErrCollaboratorUnavailable, err)
	}
	return rdb, nil
}

func (r *RedisRepository) Load(ctx context.Context, id string) (*models.Conversation, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.NotFoundf("conversation %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (r *RedisRepository) Save(ctx context.Context, conv *models.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+conv.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n == 0 {
		return models.NotFoundf("conversation %s", id)
	}
	return nil
}
