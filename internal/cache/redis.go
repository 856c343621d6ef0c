package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const hallMessagesChannel = "hall-messages"

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Presence Management
//
// Each hall keeps a set of the user numbers currently connected to it.
// Entries expire with the hall TTL so abandoned halls do not leak sets.

// AddHallMember records a user number as online in a hall
func (r *RedisClient) AddHallMember(hallID uuid.UUID, userNumber string) error {
	key := fmt.Sprintf("hall:online:%s", hallID.String())
	if err := r.client.SAdd(r.ctx, key, userNumber).Err(); err != nil {
		return err
	}
	return r.client.Expire(r.ctx, key, 13*time.Hour).Err()
}

// RemoveHallMember removes a user number from a hall's online set
func (r *RedisClient) RemoveHallMember(hallID uuid.UUID, userNumber string) error {
	key := fmt.Sprintf("hall:online:%s", hallID.String())
	return r.client.SRem(r.ctx, key, userNumber).Err()
}

// CountHallMembers returns how many users are online in a hall
func (r *RedisClient) CountHallMembers(hallID uuid.UUID) (int64, error) {
	key := fmt.Sprintf("hall:online:%s", hallID.String())
	return r.client.SCard(r.ctx, key).Result()
}

// ClearHallMembers drops a hall's online set entirely
func (r *RedisClient) ClearHallMembers(hallID uuid.UUID) error {
	key := fmt.Sprintf("hall:online:%s", hallID.String())
	return r.client.Del(r.ctx, key).Err()
}

// Pub/Sub

// PublishHallMessage publishes a persisted hall message to the shared
// channel. All server instances subscribe to the same channel, so every
// hub sees messages in the order they were published.
func (r *RedisClient) PublishHallMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return r.client.Publish(r.ctx, hallMessagesChannel, data).Err()
}

// SubscribeToHallMessages subscribes to the hall messages channel
func (r *RedisClient) SubscribeToHallMessages() *redis.PubSub {
	return r.client.Subscribe(r.ctx, hallMessagesChannel)
}

// AllowAction implements a Redis-backed token-bucket limiter per key (sender+action).
// Returns true if the action is allowed, false if rate-limited. Shared
// across instances, unlike the per-connection fallback bucket.
func (r *RedisClient) AllowAction(sender, action string, rate int, burst int) (bool, error) {
	key := fmt.Sprintf("rl:%s:%s", action, sender)
	// Lua script: manage tokens and last timestamp
	script := `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local vals = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(vals[1])
local last = tonumber(vals[2])
if tokens == nil then tokens = burst end
if last == nil then last = now end
local delta = math.max(0, now - last)
local new_tokens = math.min(burst, tokens + (delta * rate / 1000))
if new_tokens >= 1 then
	new_tokens = new_tokens - 1
	redis.call('HMSET', key, 'tokens', new_tokens, 'last', now)
	redis.call('PEXPIRE', key, 60000)
	return 1
else
	redis.call('HMSET', key, 'tokens', new_tokens, 'last', now)
	redis.call('PEXPIRE', key, 60000)
	return 0
end
`

	now := time.Now().UnixNano() / int64(time.Millisecond)
	res, err := r.client.Eval(r.ctx, script, []string{key}, rate, burst, now).Result()
	if err != nil {
		return false, err
	}
	// Eval returns int64 (1 or 0)
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case int:
		return v == 1, nil
	default:
		return false, fmt.Errorf("unexpected result from rate limiter: %T %v", res, res)
	}
}
