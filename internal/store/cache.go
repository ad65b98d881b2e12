package store

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban/internal/models"
)

// Cache wraps a Store with Redis-backed caching of per-user task lists.
// Every write evicts the affected user's list. Redis failures fall back to
// the wrapped store.
type Cache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasksByUser(ctx context.Context, userToken int64) ([]models.Record, error) {
	if records, ok := c.load(ctx, userToken); ok {
		return records, nil
	}

	records, err := c.base.ListTasksByUser(ctx, userToken)
	if err != nil {
		return nil, err
	}

	c.save(ctx, userToken, records)
	return records, nil
}

func (c *Cache) GetTask(ctx context.Context, index int64) (*models.Record, error) {
	return c.base.GetTask(ctx, index)
}

func (c *Cache) CreateTask(ctx context.Context, rec *models.Record) error {
	if err := c.base.CreateTask(ctx, rec); err != nil {
		return err
	}
	c.evict(ctx, rec.UserToken.Token)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, rec *models.Record) error {
	// The owner may change on a full replace; evict the old one too.
	if prev, err := c.base.GetTask(ctx, rec.Index); err == nil {
		defer c.evict(ctx, prev.UserToken.Token)
	}
	if err := c.base.UpdateTask(ctx, rec); err != nil {
		return err
	}
	c.evict(ctx, rec.UserToken.Token)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, index int64) error {
	prev, err := c.base.GetTask(ctx, index)
	if err != nil {
		return err
	}
	if err := c.base.DeleteTask(ctx, index); err != nil {
		return err
	}
	c.evict(ctx, prev.UserToken.Token)
	return nil
}

func (c *Cache) Close() error {
	return c.base.Close()
}

func (c *Cache) load(ctx context.Context, userToken int64) ([]models.Record, bool) {
	if c.redis == nil {
		return nil, false
	}
	key := tasksCacheKey(userToken)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("key", key).Warn("task cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var records []models.Record
	if err := sonic.Unmarshal(data, &records); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return records, true
}

func (c *Cache) save(ctx context.Context, userToken int64, records []models.Record) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(records)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(userToken), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userToken int64) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(userToken)).Result()
}

func tasksCacheKey(userToken int64) string {
	return "tasks:" + strconv.FormatInt(userToken, 10)
}
