package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/medcare/config"
	"github.com/Domenick1991/medcare/internal/domain"
	"github.com/redis/go-redis/v9"
)

// setIfNewer stores the booking unless the cached entry carries a higher version.
var setIfNewer = redis.NewScript(`
	local current = redis.call('HGET', KEYS[1], 'version')
	if current and tonumber(current) > tonumber(ARGV[1]) then
		return 0
	end
	redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
`)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		cfg.TTL(),
	)
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// GetBooking returns nil, nil on a miss.
func (c *RedisCache) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	data, err := c.client.HGet(ctx, bookingKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var booking domain.Booking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// SetBooking never replaces an entry with a newer UpdatedAt, so a slow read
// cannot overwrite the result of a later mutation.
func (c *RedisCache) SetBooking(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	args := []any{bookingVersion(booking), payload, c.ttl.Milliseconds()}
	return setIfNewer.Run(ctx, c.client, []string{bookingKey(booking.ID)}, args...).Err()
}

func (c *RedisCache) DeleteBooking(ctx context.Context, id string) error {
	return c.client.Del(ctx, bookingKey(id)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func bookingKey(id string) string {
	return "booking:" + id
}

// bookingVersion is UpdatedAt in microseconds, which Lua numbers hold exactly.
func bookingVersion(booking *domain.Booking) int64 {
	return booking.UpdatedAt.UnixMicro()
}
