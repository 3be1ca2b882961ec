//go:build integration

package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"baranex/internal/barangay/service"
	platformredis "baranex/internal/platform/redis"
	id "baranex/pkg/domain"
	"baranex/pkg/testutil/containers"
)

type RedisNameCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *service.RedisNameCache
}

func TestRedisNameCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisNameCacheSuite))
}

func (s *RedisNameCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = service.NewRedisNameCache(&platformredis.Client{Client: s.redis.Client}, logger)
}

func (s *RedisNameCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisNameCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	barangayID := id.NewBarangayID()

	_, ok := s.cache.Get(ctx, barangayID)
	s.False(ok)

	s.cache.Set(ctx, barangayID, "San Isidro, Pilar", time.Minute)

	name, ok := s.cache.Get(ctx, barangayID)
	s.True(ok)
	s.Equal("San Isidro, Pilar", name)
}

func (s *RedisNameCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	barangayID := id.NewBarangayID()

	s.cache.Set(ctx, barangayID, "Bulan Centro, Bulan", 50*time.Millisecond)

	_, ok := s.cache.Get(ctx, barangayID)
	s.True(ok)

	time.Sleep(100 * time.Millisecond)

	_, ok = s.cache.Get(ctx, barangayID)
	s.False(ok)
}

func (s *RedisNameCacheSuite) TestKeysAreScopedPerBarangay() {
	ctx := context.Background()
	first := id.NewBarangayID()
	second := id.NewBarangayID()

	s.cache.Set(ctx, first, "Otavalo, Pilar", time.Minute)
	s.cache.Set(ctx, second, "Danao, Pilar", time.Minute)

	name, ok := s.cache.Get(ctx, first)
	s.True(ok)
	s.Equal("Otavalo, Pilar", name)

	name, ok = s.cache.Get(ctx, second)
	s.True(ok)
	s.Equal("Danao, Pilar", name)
}
