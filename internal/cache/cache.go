// Package cache — опциональный Redis-кэш публичных профилей.
package cache

//go:generate mockgen -source=cache.go -destination=../../mocks/mock_cache.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/redis/go-redis/v9"
)

// ProfileCache — минимальный контракт кэша профилей, ключ — email.
type ProfileCache interface {
	// Get возвращает профиль и признак его наличия в кэше.
	Get(ctx context.Context, email string) (*models.Profile, bool, error)
	// Add сохраняет профиль, только если ключа ещё нет (заполнение при промахе).
	// Не перетирает запись, записанную обновлением профиля.
	Add(ctx context.Context, p *models.Profile) error
	// Set сохраняет профиль с TTL кэша безусловно.
	Set(ctx context.Context, p *models.Profile) error
	// Delete удаляет запись.
	Delete(ctx context.Context, email string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Пустой prefix заменяется на "crm:profile:", неположительный ttl — на 5 минут.
func NewRedisCache(ctx context.Context, redisURL, prefix string, ttl time.Duration) (ProfileCache, error) {
	if prefix == "" {
		prefix = "crm:profile:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (c *redisCache) key(email string) string { return c.prefix + email }

func (c *redisCache) Get(ctx context.Context, email string) (*models.Profile, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, err
	}

	return &p, true, nil
}

func (c *redisCache) Add(ctx context.Context, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return c.rdb.SetNX(ctx, c.key(p.Email), raw, c.ttl).Err()
}

func (c *redisCache) Set(ctx context.Context, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(p.Email), raw, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, c.key(email)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
