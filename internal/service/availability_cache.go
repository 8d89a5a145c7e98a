package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/models"
	"owl-hotel/internal/store"

	"go.uber.org/zap"
)

// AvailabilityCache stores aggregated reports keyed by a per-hotel
// generation counter. Every committed write bumps the generation, so
// entries computed before the write can no longer be addressed.
//
// A hotel whose bump failed is marked pending: Generation refuses to
// serve it until a later bump succeeds, so readers go to storage instead
// of an entry that predates the write.
type AvailabilityCache struct {
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]uint64 // hotel id -> failed bumps since the last good one
}

func NewAvailabilityCache(kv store.KV, ttl time.Duration, logger *zap.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AvailabilityCache{kv: kv, ttl: ttl, logger: logger, pending: make(map[string]uint64)}
}

func generationKey(hotelID string) string {
	return fmt.Sprintf("owl-hotel:availability:%s:gen", hotelID)
}

func reportKey(hotelID, generation string, w domain.Window) string {
	return fmt.Sprintf("owl-hotel:availability:%s:g%s:%s:%s", hotelID, generation, domain.FormatDate(w.From), domain.FormatDate(w.To))
}

// Generation returns the current generation ("0" before the first write).
// For a hotel with a pending invalidation it retries the bump first and
// fails while that keeps failing.
func (c *AvailabilityCache) Generation(ctx context.Context, hotelID string) (string, error) {
	if c.isPending(hotelID) {
		if err := c.bump(ctx, hotelID); err != nil {
			return "", fmt.Errorf("availability cache for hotel %s awaits invalidation: %w", hotelID, err)
		}
	}
	v, err := c.kv.Get(ctx, generationKey(hotelID))
	if errors.Is(err, store.ErrMiss) {
		return "0", nil
	}
	return v, err
}

// Get looks up a report for the given generation.
func (c *AvailabilityCache) Get(ctx context.Context, hotelID, generation string, w domain.Window) (*models.AvailabilityReport, bool) {
	raw, err := c.kv.Get(ctx, reportKey(hotelID, generation, w))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("Availability cache read failed", zap.String("hotel_id", hotelID), zap.Error(err))
		}
		return nil, false
	}
	var report models.AvailabilityReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false
	}
	return &report, true
}

func (c *AvailabilityCache) Set(ctx context.Context, hotelID, generation string, w domain.Window, report *models.AvailabilityReport) {
	b, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, reportKey(hotelID, generation, w), string(b), c.ttl); err != nil {
		c.logger.Warn("Availability cache write failed", zap.String("hotel_id", hotelID), zap.Error(err))
	}
}

// Invalidate bumps the hotel's generation. On failure the hotel stays
// pending until a bump succeeds.
func (c *AvailabilityCache) Invalidate(ctx context.Context, hotelID string) {
	if err := c.bump(ctx, hotelID); err != nil {
		c.mu.Lock()
		c.pending[hotelID]++
		c.mu.Unlock()
		c.logger.Warn("Availability cache invalidation failed", zap.String("hotel_id", hotelID), zap.Error(err))
	}
}

func (c *AvailabilityCache) bump(ctx context.Context, hotelID string) error {
	c.mu.Lock()
	failed := c.pending[hotelID]
	c.mu.Unlock()

	if _, err := c.kv.Incr(ctx, generationKey(hotelID)); err != nil {
		return err
	}

	// a failure recorded while we were bumping may belong to a write
	// that committed after our increment
	c.mu.Lock()
	if c.pending[hotelID] == failed {
		delete(c.pending, hotelID)
	}
	c.mu.Unlock()
	return nil
}

func (c *AvailabilityCache) isPending(hotelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[hotelID] > 0
}
