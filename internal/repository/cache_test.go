// internal/repository/cache_test.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
)

func newTestCache(t *testing.T) (*Cache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewCache(client, logger.NewTestLogger(t)), mock
}

func TestIsProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectGet("processed:msg-1").SetVal("1")

		assert.True(t, cache.IsProcessed(ctx, "msg-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss reports not processed", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectGet("processed:msg-2").RedisNil()

		assert.False(t, cache.IsProcessed(ctx, "msg-2"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error reports not processed", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectGet("processed:msg-3").SetErr(errors.New("connection refused"))

		assert.False(t, cache.IsProcessed(ctx, "msg-3"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkProcessed(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectSet("processed:msg-1", "1", 7*24*time.Hour).SetVal("OK")

	cache.MarkProcessed(context.Background(), "msg-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentJobsSnapshot(t *testing.T) {
	ctx := context.Background()
	jobs := []models.JobApplication{
		{
			ID:            uuid.New(),
			CompanyName:   "TechCorp",
			CompanyDomain: "techcorp.com",
			PositionTitle: "Backend Engineer",
			AppliedAt:     time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			EffortLevel:   models.EffortHigh,
		},
	}
	data, err := json.Marshal(jobs)
	require.NoError(t, err)

	t.Run("set then get", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectSet("jobs:recent", data, 5*time.Minute).SetVal("OK")
		mock.ExpectGet("jobs:recent").SetVal(string(data))

		cache.SetRecentJobs(ctx, jobs)
		got := cache.GetRecentJobs(ctx)
		require.Len(t, got, 1)
		assert.Equal(t, jobs[0].ID, got[0].ID)
		assert.Equal(t, "TechCorp", got[0].CompanyName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss returns nil", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectGet("jobs:recent").RedisNil()

		assert.Nil(t, cache.GetRecentJobs(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload returns nil", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectGet("jobs:recent").SetVal("{not json")

		assert.Nil(t, cache.GetRecentJobs(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalidate", func(t *testing.T) {
		cache, mock := newTestCache(t)
		mock.ExpectDel("jobs:recent").SetVal(1)

		cache.InvalidateRecentJobs(ctx)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
