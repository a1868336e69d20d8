package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/google/uuid"

	"github.com/medremind/medremind-backend/internal/logger"
	"github.com/medremind/medremind-backend/internal/types"
)

// ErrCacheMiss is returned when no full data is cached for the analysis;
// callers fall back to the persisted row.
var ErrCacheMiss = errors.New("bundle cache miss")

// BundleCache holds the retained FullData between an analysis response and
// the option fetches that follow it. Redis is an accelerator here, not the
// source of truth; the analysis row keeps its own copy.
type BundleCache interface {
	PutFullData(ctx context.Context, analysisID uuid.UUID, full *types.FullData) error
	GetFullData(ctx context.Context, analysisID uuid.UUID) (*types.FullData, error)
	Invalidate(ctx context.Context, analysisID uuid.UUID) error
	Close() error
}

type bundleCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewBundleCache(log *logger.Logger) (BundleCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := 30 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("BUNDLE_CACHE_TTL_MINUTES")); raw != "" {
		var minutes int
		if _, err := fmt.Sscanf(raw, "%d", &minutes); err == nil && minutes > 0 {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &bundleCache{
		log: log.With("service", "RedisBundleCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(analysisID uuid.UUID) string {
	return "medremind:fulldata:" + analysisID.String()
}

func (c *bundleCache) PutFullData(ctx context.Context, analysisID uuid.UUID, full *types.FullData) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("bundle cache not initialized")
	}
	raw, err := json.Marshal(full)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(analysisID), raw, c.ttl).Err()
}

func (c *bundleCache) GetFullData(ctx context.Context, analysisID uuid.UUID) (*types.FullData, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("bundle cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, cacheKey(analysisID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var full types.FullData
	if err := json.Unmarshal(raw, &full); err != nil {
		c.log.Warn("bad cached full data payload", "analysis_id", analysisID, "error", err)
		return nil, ErrCacheMiss
	}
	return &full, nil
}

func (c *bundleCache) Invalidate(ctx context.Context, analysisID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, cacheKey(analysisID)).Err()
}

func (c *bundleCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
