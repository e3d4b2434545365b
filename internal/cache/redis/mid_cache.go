package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// midTTL expires cached mids that nothing refreshes. The hedging pipeline
// additionally applies its own freshness bound on read.
const midTTL = time.Hour

// MidCache implements domain.MidCache using Redis hashes. Each outcome's
// mid is stored at key "mid:{outcomeID}" with fields "mid" and "ts" (Unix
// nanosecond timestamp).
type MidCache struct {
	rdb *redis.Client
}

// NewMidCache creates a MidCache on the given client.
func NewMidCache(rdb *redis.Client) *MidCache {
	return &MidCache{rdb: rdb}
}

func midKey(outcomeID string) string {
	return "mid:" + outcomeID
}

// SetMid stores the latest observed mid price for an outcome.
func (mc *MidCache) SetMid(ctx context.Context, outcomeID string, mid float64, ts time.Time) error {
	key := midKey(outcomeID)
	fields := map[string]interface{}{
		"mid": strconv.FormatFloat(mid, 'f', -1, 64),
		"ts":  strconv.FormatInt(ts.UnixNano(), 10),
	}

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, midTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set mid %s: %w", outcomeID, err)
	}
	return nil
}

// GetMid retrieves the last stored mid price and its observation time.
// It returns domain.ErrNotFound when no mid has been stored.
func (mc *MidCache) GetMid(ctx context.Context, outcomeID string) (float64, time.Time, error) {
	vals, err := mc.rdb.HGetAll(ctx, midKey(outcomeID)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get mid %s: %w", outcomeID, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	midStr, ok := vals["mid"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	mid, err := strconv.ParseFloat(midStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse mid %s: %w", outcomeID, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse mid timestamp %s: %w", outcomeID, err)
	}

	return mid, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.MidCache = (*MidCache)(nil)
