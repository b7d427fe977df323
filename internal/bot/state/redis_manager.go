package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

const stateTTL = 24 * time.Hour

// RedisManager keeps conversation state in Redis so it survives restarts
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager connects to redis and checks the connection
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisManagerWithClient(client), nil
}

// NewRedisManagerWithClient wraps an existing client
func NewRedisManagerWithClient(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

func stateKey(userID int64) string { return fmt.Sprintf("user:%d:state", userID) }
func focusKey(userID int64) string { return fmt.Sprintf("user:%d:focus", userID) }
func tempKey(userID int64) string  { return fmt.Sprintf("user:%d:temp", userID) }

func (m *RedisManager) SetUserState(userID int64, state string) {
	if err := m.client.Set(context.Background(), stateKey(userID), state, stateTTL).Err(); err != nil {
		logger.Warn("Failed to save user state", "user_id", userID, "error", err)
	}
}

// GetUserState returns None when nothing is stored or redis fails
func (m *RedisManager) GetUserState(userID int64) string {
	val, err := m.client.Get(context.Background(), stateKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to read user state", "user_id", userID, "error", err)
		}
		return None
	}
	return val
}

func (m *RedisManager) ClearUserState(userID int64) {
	m.client.Del(context.Background(), stateKey(userID))
}

func (m *RedisManager) SetFocus(userID int64, focus Focus) {
	data, err := json.Marshal(focus)
	if err != nil {
		return
	}
	if err := m.client.Set(context.Background(), focusKey(userID), data, stateTTL).Err(); err != nil {
		logger.Warn("Failed to save focus", "user_id", userID, "error", err)
	}
}

func (m *RedisManager) GetFocus(userID int64) (Focus, bool) {
	data, err := m.client.Get(context.Background(), focusKey(userID)).Bytes()
	if err != nil {
		return Focus{}, false
	}
	var f Focus
	if err := json.Unmarshal(data, &f); err != nil {
		return Focus{}, false
	}
	return f, true
}

// SetTempData stores one field of the user's temp hash
func (m *RedisManager) SetTempData(userID int64, key, value string) {
	ctx := context.Background()
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, tempKey(userID), key, value)
	pipe.Expire(ctx, tempKey(userID), stateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("Failed to save temp data", "user_id", userID, "error", err)
	}
}

func (m *RedisManager) GetTempData(userID int64, key string) (string, bool) {
	val, err := m.client.HGet(context.Background(), tempKey(userID), key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (m *RedisManager) ClearTempData(userID int64) {
	m.client.Del(context.Background(), tempKey(userID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}
