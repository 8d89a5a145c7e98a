package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/events"
	"owl-hotel/internal/repository"
	"owl-hotel/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.sets++
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	repo         *repository.MemoryInventoryRepo
	kv           *fakeKV
	resolver     *CapacityResolver
	cache        *AvailabilityCache
	publisher    *recordingPublisher
	inventory    InventoryService
	bookings     BookingService
	availability AvailabilityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		repo:      repository.NewMemoryInventoryRepo(),
		kv:        newFakeKV(),
		publisher: &recordingPublisher{},
	}
	env.resolver = NewCapacityResolver(repository.NewMemoryBedTypesRepo(), env.kv, "sharing", 2, logger)
	require.NoError(t, env.resolver.SeedDefaults(context.Background()))
	env.cache = NewAvailabilityCache(env.kv, time.Minute, logger)
	env.inventory = NewInventoryService(env.repo, env.resolver, env.cache, env.publisher, logger)
	env.bookings = NewBookingService(env.repo, env.cache, env.publisher, logger)
	env.availability = NewAvailabilityService(env.repo, env.cache, 3, logger)
	return env
}

// seed registers hotel "7" (org-1) with floor 1 and room 101 of roomType.
func (e *testEnv) seed(t *testing.T, roomType string, capacity *int) (floor *domain.Floor, room *domain.Room) {
	t.Helper()
	ctx := context.Background()
	_, err := e.inventory.RegisterHotel(ctx, RegisterHotelRequest{HotelID: "7", OrganizationID: "org-1", Name: "Makkah Towers"})
	require.NoError(t, err)
	f, err := e.inventory.CreateFloor(ctx, CreateFloorRequest{OrganizationID: "org-1", HotelID: "7", FloorNo: 1})
	require.NoError(t, err)
	r, err := e.inventory.CreateRoom(ctx, CreateRoomRequest{OrganizationID: "org-1", FloorID: f.Floor.ID, RoomNo: "101", RoomType: roomType, Capacity: capacity})
	require.NoError(t, err)
	return f.Floor, r.Room
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(n int) *int { return &n }

func bedIDs(beds []*domain.Bed) []string {
	ids := make([]string, 0, len(beds))
	for _, b := range beds {
		ids = append(ids, b.ID)
	}
	return ids
}

func bedNos(beds []*domain.Bed) []int {
	nos := make([]int, 0, len(beds))
	for _, b := range beds {
		nos = append(nos, b.BedNo)
	}
	return nos
}
