package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
)

const (
	redisPrefix = "ezan-saati:"
	dayTTL      = 48 * time.Hour
	monthTTL    = 40 * 24 * time.Hour
)

// RedisCache is a Store shared between processes through Redis. Entries
// expire on their own, so no date validation beyond the key is needed.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, username, password string) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

func (r *RedisCache) get(ctx context.Context, key string, out any) error {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return ErrMiss
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func dayKey(date time.Time, q api.Query) string {
	return redisPrefix + "day:" + Key(dayStamp(date), q)
}

func monthKey(year int, month time.Month, q api.Query) string {
	return redisPrefix + "month:" + Key(monthStamp(year, month), q)
}

const geoKey = redisPrefix + "geo"

func (r *RedisCache) LoadDay(ctx context.Context, date time.Time, q api.Query) (*DayEntry, error) {
	var entry DayEntry
	if err := r.get(ctx, dayKey(date, q), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *RedisCache) SaveDay(ctx context.Context, date time.Time, q api.Query, data api.Data) error {
	return r.set(ctx, dayKey(date, q), DayEntry{
		Date:   dayStamp(date),
		Method: q.Method,
		School: q.School,
		Data:   data,
	}, dayTTL)
}

func (r *RedisCache) LoadMonth(ctx context.Context, year int, month time.Month, q api.Query) (*MonthEntry, error) {
	var entry MonthEntry
	if err := r.get(ctx, monthKey(year, month, q), &entry); err != nil {
		return nil, err
	}
	if len(entry.Days) == 0 {
		return nil, ErrMiss
	}
	return &entry, nil
}

func (r *RedisCache) SaveMonth(ctx context.Context, year int, month time.Month, q api.Query, days []api.Data) error {
	return r.set(ctx, monthKey(year, month, q), MonthEntry{
		Month:  monthStamp(year, month),
		Method: q.Method,
		School: q.School,
		Days:   days,
	}, monthTTL)
}

func (r *RedisCache) LoadGeo(ctx context.Context) (*geo.Location, error) {
	var entry GeoEntry
	if err := r.get(ctx, geoKey, &entry); err != nil {
		return nil, err
	}
	return &entry.Location, nil
}

func (r *RedisCache) SaveGeo(ctx context.Context, loc *geo.Location) error {
	return r.set(ctx, geoKey, GeoEntry{Location: *loc, CachedAt: time.Now()}, geoTTL)
}

var (
	_ Store = (*Cache)(nil)
	_ Store = (*RedisCache)(nil)
)
