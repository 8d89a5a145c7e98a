package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/repository"
	"owl-hotel/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bedTypesCacheKey = "owl-hotel:bed-types"

// CapacityResolver maps room type names to bed counts using the bed
// type reference list, and keeps bed lists in step with capacity.
type CapacityResolver struct {
	repo            repository.BedTypesRepository
	kv              store.KV // optional list cache
	cacheTTL        time.Duration
	sharingType     string
	defaultCapacity int
	logger          *zap.Logger
}

func NewCapacityResolver(repo repository.BedTypesRepository, kv store.KV, sharingType string, defaultCapacity int, logger *zap.Logger) *CapacityResolver {
	if defaultCapacity < 1 {
		defaultCapacity = 2
	}
	return &CapacityResolver{
		repo:            repo,
		kv:              kv,
		cacheTTL:        5 * time.Minute,
		sharingType:     domain.NormalizeTypeName(sharingType),
		defaultCapacity: defaultCapacity,
		logger:          logger,
	}
}

// IsSharing reports whether rooms of this type have operator-set capacity.
func (r *CapacityResolver) IsSharing(roomType string) bool {
	return domain.NormalizeTypeName(roomType) == r.sharingType
}

// DefaultCapacity is the fallback used for unknown types.
func (r *CapacityResolver) DefaultCapacity() int { return r.defaultCapacity }

// Resolve returns the capacity of typeName, or ErrUnknownType.
func (r *CapacityResolver) Resolve(ctx context.Context, typeName string) (int, error) {
	name := domain.NormalizeTypeName(typeName)
	if name == "" {
		return 0, fmt.Errorf("%w: empty type name", domain.ErrUnknownType)
	}
	types, err := r.ListBedTypes(ctx)
	if err != nil {
		return 0, err
	}
	for _, bt := range types {
		if bt.Name == name {
			return bt.Capacity, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeName)
}

// ResolveOrDefault falls back to the default capacity for unknown types.
// Storage failures are still returned.
func (r *CapacityResolver) ResolveOrDefault(ctx context.Context, typeName string) (int, error) {
	capacity, err := r.Resolve(ctx, typeName)
	if errors.Is(err, domain.ErrUnknownType) {
		r.logger.Warn("Unknown room type, using default capacity",
			zap.String("room_type", typeName),
			zap.Int("capacity", r.defaultCapacity),
		)
		return r.defaultCapacity, nil
	}
	return capacity, err
}

// ListBedTypes reads the reference list, through the KV cache when configured.
func (r *CapacityResolver) ListBedTypes(ctx context.Context) ([]*domain.BedType, error) {
	if r.kv != nil {
		if raw, err := r.kv.Get(ctx, bedTypesCacheKey); err == nil {
			var cached []*domain.BedType
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, store.ErrMiss) {
			r.logger.Warn("Bed type cache read failed", zap.Error(err))
		}
	}

	types, err := r.repo.ListBedTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bed types: %w", err)
	}

	if r.kv != nil {
		if b, err := json.Marshal(types); err == nil {
			if err := r.kv.Set(ctx, bedTypesCacheKey, string(b), r.cacheTTL); err != nil {
				r.logger.Warn("Bed type cache write failed", zap.Error(err))
			}
		}
	}
	return types, nil
}

// UpsertBedType changes the reference list. Existing rooms keep their
// capacity; only rooms created or retyped later see the new value.
func (r *CapacityResolver) UpsertBedType(ctx context.Context, bt *domain.BedType) (*domain.BedType, error) {
	if err := r.repo.UpsertBedType(ctx, bt); err != nil {
		return nil, err
	}
	r.dropCache(ctx)
	return r.repo.GetBedType(ctx, bt.Name)
}

// SeedDefaults fills an empty reference list.
func (r *CapacityResolver) SeedDefaults(ctx context.Context) error {
	existing, err := r.repo.ListBedTypes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, bt := range domain.DefaultBedTypes(r.sharingType) {
		if err := r.repo.UpsertBedType(ctx, bt); err != nil {
			return fmt.Errorf("failed to seed bed type %s: %w", bt.Name, err)
		}
	}
	r.dropCache(ctx)
	r.logger.Info("Seeded default bed types")
	return nil
}

func (r *CapacityResolver) dropCache(ctx context.Context) {
	if r.kv == nil {
		return
	}
	if err := r.kv.Del(ctx, bedTypesCacheKey); err != nil {
		r.logger.Warn("Bed type cache invalidation failed", zap.Error(err))
	}
}

// RegenerateBeds resizes a bed list to n. The first min(len, n) beds are
// kept as they are (ids and overrides); new beds are numbered after the
// highest existing number; shrinking drops beds from the end.
func RegenerateBeds(old []*domain.Bed, roomID string, n int) []*domain.Bed {
	sorted := make([]*domain.Bed, len(old))
	copy(sorted, old)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BedNo < sorted[j].BedNo })

	keep := len(sorted)
	if n < keep {
		keep = n
	}
	next := 0
	for _, b := range sorted {
		if b.BedNo > next {
			next = b.BedNo
		}
	}

	out := make([]*domain.Bed, 0, n)
	for _, b := range sorted[:keep] {
		c := *b
		c.RoomID = roomID
		out = append(out, &c)
	}
	for i := keep; i < n; i++ {
		next++
		out = append(out, &domain.Bed{ID: uuid.NewString(), RoomID: roomID, BedNo: next})
	}
	return out
}
