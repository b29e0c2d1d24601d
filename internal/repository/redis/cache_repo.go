package redis

import (
	"context"
	"strconv"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/pkg/clients"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const embeddingCountKey = "products:embedding_count"

// CacheRepo кэширует счётчик позиций с сохранённым вектором.
// Проверка «наполнено ли хранилище» выполняется на каждый пустой результат
// поиска, кэш снимает эту нагрузку с PostgreSQL.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetEmbeddingCount возвращает закэшированный счётчик.
// Любая ошибка Redis логируется и трактуется как промах кэша.
func (c *CacheRepo) GetEmbeddingCount(ctx context.Context) (int64, bool) {
	val, err := c.client.Client.Get(ctx, embeddingCountKey).Result()
	if err != nil {
		if err != r.Nil {
			c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		c.logger.Warnf("Corrupted embedding count in cache: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(context.Background(), embeddingCountKey).Err(); err != nil {
			c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return 0, false
	}

	return count, true
}

// SetEmbeddingCount кэширует счётчик с TTL. Ошибка записи игнорируется с логом.
func (c *CacheRepo) SetEmbeddingCount(ctx context.Context, count int64) {
	if err := c.client.Client.Set(ctx, embeddingCountKey, strconv.FormatInt(count, 10), c.cfg.CountTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}
