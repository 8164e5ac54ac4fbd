// internal/repository/cache.go
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

const (
	processedKeyPrefix = "processed:"
	jobsCacheKey       = "jobs:recent"

	processedTTL = 7 * 24 * time.Hour
	jobsCacheTTL = 5 * time.Minute
)

// Cache is the Redis fast path in front of the repository. Misses fall
// through to Postgres; a dead Redis degrades to slow, never to wrong.
type Cache struct {
	redis  *redis.Client
	logger logger.Logger
}

func NewCache(client *redis.Client, log logger.Logger) *Cache {
	return &Cache{redis: client, logger: log}
}

// IsProcessed checks the processed flag for a provider message id. Errors
// report as not-processed so the authoritative Postgres check still runs.
func (c *Cache) IsProcessed(ctx context.Context, providerID string) bool {
	val, err := c.redis.Get(ctx, processedKeyPrefix+providerID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("processed-flag cache read failed", map[string]interface{}{
				"providerId": providerID,
				"error":      err.Error(),
			})
		}
		return false
	}
	return val == "1"
}

// MarkProcessed sets the processed flag. Best effort.
func (c *Cache) MarkProcessed(ctx context.Context, providerID string) {
	if err := c.redis.Set(ctx, processedKeyPrefix+providerID, "1", processedTTL).Err(); err != nil {
		c.logger.Debug("processed-flag cache write failed", map[string]interface{}{
			"providerId": providerID,
			"error":      err.Error(),
		})
	}
}

// GetRecentJobs returns the cached candidate snapshot, nil on miss or decode
// failure.
func (c *Cache) GetRecentJobs(ctx context.Context) []models.JobApplication {
	val, err := c.redis.Get(ctx, jobsCacheKey).Result()
	if err != nil {
		return nil
	}
	var jobs []models.JobApplication
	if err := json.Unmarshal([]byte(val), &jobs); err != nil {
		return nil
	}
	return jobs
}

// SetRecentJobs caches the candidate snapshot. Best effort.
func (c *Cache) SetRecentJobs(ctx context.Context, jobs []models.JobApplication) {
	data, err := json.Marshal(jobs)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, jobsCacheKey, data, jobsCacheTTL).Err(); err != nil {
		c.logger.Debug("job snapshot cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// InvalidateRecentJobs drops the snapshot, used after manual review changes
// application state.
func (c *Cache) InvalidateRecentJobs(ctx context.Context) {
	c.redis.Del(ctx, jobsCacheKey)
}
