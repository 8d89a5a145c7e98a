package service

import (
	"context"
	"time"

	"owl-hotel/internal/events"

	"go.uber.org/zap"
)

// changeNotifier runs after a write has committed: it drops cached
// availability for the hotel and publishes the change event. Neither
// step can fail the write.
type changeNotifier struct {
	cache     *AvailabilityCache
	publisher events.Publisher
	clock     func() time.Time
	logger    *zap.Logger
}

func newChangeNotifier(cache *AvailabilityCache, publisher events.Publisher, logger *zap.Logger) *changeNotifier {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &changeNotifier{cache: cache, publisher: publisher, clock: time.Now, logger: logger}
}

func (n *changeNotifier) committed(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if n.cache != nil {
		n.cache.Invalidate(ctx, e.HotelID)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = n.clock().UTC()
	}
	if err := n.publisher.Publish(ctx, e); err != nil {
		n.logger.Warn("Failed to publish change event",
			zap.String("type", string(e.Type)),
			zap.String("hotel_id", e.HotelID),
			zap.Error(err),
		)
	}
}
