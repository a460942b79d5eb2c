package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nazarhussain/portfolio-courier/internal/logging"
)

const (
	redisKey = "contact:submissions"

	// One rolling window plus slack; an abandoned deployment's state
	// expires on its own.
	redisTTL = 25 * time.Hour
)

// Redis persists the table as a single JSON value under a fixed key.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Load(ctx context.Context) (Table, error) {
	data, err := r.client.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load submissions from redis: %w", err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		logging.FromContext(ctx).Warn("submissions key is not valid JSON, starting empty", "key", redisKey, "err", err)
		return Table{}, nil
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

func (r *Redis) Save(ctx context.Context, t Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}
	if err := r.client.Set(ctx, redisKey, data, redisTTL).Err(); err != nil {
		return fmt.Errorf("save submissions to redis: %w", err)
	}
	return nil
}
