package conversation

import (
	"context"
	"fmt"

	"maitred/internal/config"
	"maitred/internal/logger"
)

// NewRepository builds the backend named in cfg.
func NewRepository(ctx context.Context, cfg config.ConversationConfig) (Repository, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryRepository(), nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("conversation history stored in redis (ttl %s)", cfg.TTL)
		return NewRedisRepository(rdb, cfg.TTL), nil
	case "dynamodb":
		client, err := NewDynamoClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		repo := NewDynamoRepository(client, cfg.DynamoDB.Table, cfg.TTL)
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure dynamodb table: %w", err)
		}
		logger.Info("conversation history stored in dynamodb table %s", cfg.DynamoDB.Table)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown conversation backend %q", cfg.Backend)
}
