package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

const (
	redisStatePrefix = "t2048:state:"
	redisBestKey     = "t2048:best"

	redisTimeout     = 3 * time.Second
	bestScoreRetries = 32
)

// RedisStore keeps saved games and the best score in Redis, so several
// server processes can share them.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// OpenRedis connects to the configured server and checks it answers.
func OpenRedis(cfg config.Redis) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStore(client), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, timeout: redisTimeout}
}

// Slot returns the Persistence for one saved game.
func (that *RedisStore) Slot(key string) t2048.Persistence {
	return SlotOf(that, key)
}

func (that *RedisStore) LoadState(slot string) (*t2048.GameState, error) {
	ctx, cancel := that.ctx()
	defer cancel()

	data, err := that.client.Get(ctx, redisStatePrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %q: %w", slot, err)
	}

	st, err := t2048.DecodeGameState(data)
	if err != nil {
		return nil, fmt.Errorf("slot %q: %w", slot, err)
	}
	return st, nil
}

func (that *RedisStore) SaveState(slot string, st t2048.GameState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	ctx, cancel := that.ctx()
	defer cancel()

	if err := that.client.Set(ctx, redisStatePrefix+slot, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game %q: %w", slot, err)
	}
	return nil
}

func (that *RedisStore) ClearState(slot string) error {
	ctx, cancel := that.ctx()
	defer cancel()

	if err := that.client.Del(ctx, redisStatePrefix+slot).Err(); err != nil {
		return fmt.Errorf("failed to delete game %q: %w", slot, err)
	}
	return nil
}

func (that *RedisStore) BestScore() (int, error) {
	ctx, cancel := that.ctx()
	defer cancel()

	best, err := that.client.Get(ctx, redisBestKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get best score: %w", err)
	}
	return best, nil
}

// SetBestScore raises the best score with an optimistic transaction, so
// concurrent writers can never lower it.
func (that *RedisStore) SetBestScore(score int) error {
	ctx, cancel := that.ctx()
	defer cancel()

	raise := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, redisBestKey).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if score <= cur {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisBestKey, score, 0)
			return nil
		})
		return err
	}

	for i := 0; i < bestScoreRetries; i++ {
		err := that.client.Watch(ctx, raise, redisBestKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set best score: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to set best score: %w", redis.TxFailedErr)
}

func (that *RedisStore) Close() error {
	return that.client.Close()
}

func (that *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), that.timeout)
}
