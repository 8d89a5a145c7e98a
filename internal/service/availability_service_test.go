package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/models"
	"owl-hotel/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func availability(t *testing.T, env *testEnv, from, to string) *models.AvailabilityReport {
	t.Helper()
	report, err := env.availability.GetAvailability(context.Background(), GetAvailabilityRequest{
		OrganizationID: "org-1", HotelID: "7", DateFrom: date(t, from), DateTo: date(t, to),
	})
	require.NoError(t, err)
	return report
}

func TestAvailability_SingleBedBooking(t *testing.T) {
	env := newTestEnv(t)
	_, room := env.seed(t, "double", nil)

	report := availability(t, env, "2025-06-10", "2025-06-12")
	assert.Equal(t, 1, report.TotalRooms)
	assert.Equal(t, 1, report.AvailableRooms)
	assert.Equal(t, 0, report.OccupiedRooms)
	assert.Equal(t, 2, report.AvailableBeds)

	_, err := bookBed(t, env, room, 1, "2025-06-11", "2025-06-13")
	require.NoError(t, err)

	report = availability(t, env, "2025-06-10", "2025-06-12")
	assert.Equal(t, 0, report.AvailableRooms)
	assert.Equal(t, 1, report.PartiallyOccupiedRooms)
	assert.Equal(t, 1, report.AvailableBeds)
	assert.Equal(t, 1, report.OccupiedBeds)

	require.Len(t, report.Floors, 1)
	ra := report.Floors[0].Rooms[0]
	assert.Equal(t, models.RoomPartiallyOccupied, ra.Status)
	assert.Equal(t, []string{"Guest 2025-06-11"}, ra.GuestNames)
	assert.Equal(t, "2025-06-11", ra.CheckinDate)
	assert.Equal(t, "2025-06-13", ra.CheckoutDate)
	assert.Equal(t, string(domain.BedOccupied), ra.Beds[0].Status)
	assert.Equal(t, string(domain.BedAvailable), ra.Beds[1].Status)

	// date_to is the checkin date: the booking does not count
	report = availability(t, env, "2025-06-01", "2025-06-11")
	assert.Equal(t, 1, report.AvailableRooms)
	assert.Equal(t, 2, report.AvailableBeds)
}

func TestAvailability_RangeIsHalfOpen(t *testing.T) {
	env := newTestEnv(t)
	_, room := env.seed(t, "double", nil)

	_, err := bookBed(t, env, room, 1, "2025-06-10", "2025-06-12")
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to string
		beds     int
		status   string
	}{
		{"checkin on date_to", "2025-06-01", "2025-06-10", 2, models.RoomAvailable},
		{"checkout on date_from", "2025-06-12", "2025-06-20", 2, models.RoomAvailable},
		{"last night inside", "2025-06-11", "2025-06-12", 1, models.RoomPartiallyOccupied},
		{"first night inside", "2025-06-05", "2025-06-11", 1, models.RoomPartiallyOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := availability(t, env, tt.from, tt.to)
			assert.Equal(t, tt.from, report.DateFrom)
			assert.Equal(t, tt.to, report.DateTo)
			assert.Equal(t, tt.beds, report.AvailableBeds)
			assert.Equal(t, tt.status, report.Floors[0].Rooms[0].Status)
		})
	}

	_, err = env.availability.GetAvailability(context.Background(), GetAvailabilityRequest{
		HotelID: "7", DateFrom: date(t, "2025-06-10"), DateTo: date(t, "2025-06-10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestAvailability_WholeRoomAndOverrides(t *testing.T) {
	env := newTestEnv(t)
	floor, room := env.seed(t, "double", nil)
	ctx := context.Background()

	other, err := env.inventory.CreateRoom(ctx, CreateRoomRequest{OrganizationID: "org-1", FloorID: floor.ID, RoomNo: "102", RoomType: "triple"})
	require.NoError(t, err)
	_, err = env.inventory.SetBedStatus(ctx, SetBedStatusRequest{BedID: other.Room.Beds[0].ID, Status: "NEED_CLEANING"})
	require.NoError(t, err)

	_, err = bookBed(t, env, room, 0, "2025-06-10", "2025-06-12")
	require.NoError(t, err)

	report := availability(t, env, "2025-06-10", "2025-06-11")
	assert.Equal(t, 2, report.TotalRooms)
	assert.Equal(t, 1, report.OccupiedRooms)
	assert.Equal(t, 1, report.PartiallyOccupiedRooms)
	assert.Equal(t, 5, report.TotalBeds)
	assert.Equal(t, 2, report.AvailableBeds)
	assert.Equal(t, 2, report.OccupiedBeds)

	byType := map[string]models.RoomTypeSummary{}
	for _, rt := range report.RoomTypes {
		byType[rt.RoomType] = rt
	}
	assert.Equal(t, models.RoomTypeSummary{RoomType: "double", TotalRooms: 1, TotalBeds: 2}, byType["double"])
	assert.Equal(t, models.RoomTypeSummary{RoomType: "triple", TotalRooms: 1, TotalBeds: 3, AvailableBeds: 2}, byType["triple"])

	rooms := report.Floors[0].Rooms
	require.Len(t, rooms, 2)
	assert.Equal(t, string(domain.BedNeedCleaning), rooms[1].Beds[0].Status)
}

func TestAvailability_CacheInvalidatedByWrites(t *testing.T) {
	env := newTestEnv(t)
	_, room := env.seed(t, "double", nil)

	first := availability(t, env, "2025-06-10", "2025-06-12")
	sets := env.kv.sets
	cached := availability(t, env, "2025-06-10", "2025-06-12")
	assert.Equal(t, first.AvailableBeds, cached.AvailableBeds)
	assert.Equal(t, sets, env.kv.sets, "second read served from cache")

	_, err := bookBed(t, env, room, 2, "2025-06-10", "2025-06-11")
	require.NoError(t, err)

	fresh := availability(t, env, "2025-06-10", "2025-06-12")
	assert.Equal(t, 1, fresh.AvailableBeds)
}

// brokenIncrKV loses generation bumps while failing is set.
type brokenIncrKV struct {
	*fakeKV
	failing bool
}

func (k *brokenIncrKV) Incr(ctx context.Context, key string) (int64, error) {
	if k.failing {
		return 0, errors.New("READONLY You can't write against a read only replica")
	}
	return k.fakeKV.Incr(ctx, key)
}

func TestAvailability_FailedInvalidationBypassesCache(t *testing.T) {
	env := newTestEnv(t)
	_, room := env.seed(t, "double", nil)

	kv := &brokenIncrKV{fakeKV: env.kv}
	logger := zap.NewNop()
	cache := NewAvailabilityCache(kv, time.Minute, logger)
	bookings := NewBookingService(env.repo, cache, env.publisher, logger)
	svc := NewAvailabilityService(env.repo, cache, 1, logger)
	ctx := context.Background()
	req := GetAvailabilityRequest{HotelID: "7", DateFrom: date(t, "2025-06-10"), DateTo: date(t, "2025-06-12")}

	before, err := svc.GetAvailability(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, before.AvailableBeds)

	kv.failing = true
	_, err = bookings.CreateBooking(ctx, CreateBookingRequest{
		OrganizationID: "org-1", HotelID: "7", RoomID: room.ID, BedID: room.Beds[0].ID,
		GuestName: "Guest", Checkin: date(t, "2025-06-10"), Checkout: date(t, "2025-06-11"),
	})
	require.NoError(t, err)

	after, err := svc.GetAvailability(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, after.AvailableBeds)
	_, err = cache.Generation(ctx, "7")
	assert.Error(t, err)

	// once the store accepts writes again the next read repairs the generation
	kv.failing = false
	gen, err := cache.Generation(ctx, "7")
	require.NoError(t, err)
	assert.NotEqual(t, "0", gen)

	repaired, err := svc.GetAvailability(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.AvailableBeds)
	cached, ok := cache.Get(ctx, "7", gen, domain.Window{From: req.DateFrom, To: req.DateTo})
	require.True(t, ok)
	assert.Equal(t, 1, cached.AvailableBeds)
}

func TestAvailability_DefaultWindowAndValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "double", nil)
	svc := env.availability.(*availabilityService)
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	report, err := svc.GetAvailability(ctx, GetAvailabilityRequest{HotelID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", report.DateFrom)
	assert.Equal(t, "2025-06-17", report.DateTo)

	_, err = svc.GetAvailability(ctx, GetAvailabilityRequest{HotelID: "7", DateFrom: date(t, "2025-06-10"), DateTo: date(t, "2025-06-09")})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.GetAvailability(ctx, GetAvailabilityRequest{HotelID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetAvailability(ctx, GetAvailabilityRequest{OrganizationID: "org-2", HotelID: "7"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type flakyRepo struct {
	repository.InventoryRepository
	failures int
	calls    int
}

func (f *flakyRepo) Snapshot(ctx context.Context, hotelID string, stay domain.Stay) (*repository.HotelSnapshot, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, domain.NewStorageError("snapshot", errors.New("connection reset"))
	}
	return f.InventoryRepository.Snapshot(ctx, hotelID, stay)
}

func TestAvailability_RetriesStorageErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "double", nil)
	ctx := context.Background()
	req := GetAvailabilityRequest{HotelID: "7", DateFrom: date(t, "2025-06-10"), DateTo: date(t, "2025-06-11")}

	flaky := &flakyRepo{InventoryRepository: env.repo, failures: 2}
	svc := NewAvailabilityService(flaky, nil, 3, zap.NewNop()).(*availabilityService)
	svc.retryBackoff = time.Millisecond

	report, err := svc.GetAvailability(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalRooms)
	assert.Equal(t, 3, flaky.calls)

	flaky = &flakyRepo{InventoryRepository: env.repo, failures: 5}
	svc = NewAvailabilityService(flaky, nil, 3, zap.NewNop()).(*availabilityService)
	svc.retryBackoff = time.Millisecond

	_, err = svc.GetAvailability(ctx, req)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 3, flaky.calls)
}

func TestAggregate_IgnoresCancelledAndOutOfWindow(t *testing.T) {
	room := &domain.Room{ID: "r1", RoomNo: "101", RoomType: "single", Capacity: 1, Beds: []*domain.Bed{{ID: "b1", BedNo: 1}}}
	snap := &repository.HotelSnapshot{
		Hotel:  &domain.Hotel{ID: "7", Name: "H"},
		Floors: []*repository.FloorWithRooms{{Floor: &domain.Floor{ID: "f1", FloorNo: 1, Title: "Floor 1"}, Rooms: []*domain.Room{room}}},
		Bookings: []*domain.Booking{
			{ID: "c", RoomID: "r1", BedID: "b1", Status: domain.BookingCancelled, Checkin: date(t, "2025-06-10"), Checkout: date(t, "2025-06-12")},
			{ID: "late", RoomID: "r1", BedID: "b1", Status: domain.BookingConfirmed, Checkin: date(t, "2025-06-13"), Checkout: date(t, "2025-06-14")},
		},
	}
	window, err := domain.NewWindow(date(t, "2025-06-10"), date(t, "2025-06-12"))
	require.NoError(t, err)

	report := Aggregate(snap, window)
	assert.Equal(t, 1, report.AvailableRooms)
	assert.Equal(t, "Floor 1", report.Floors[0].FloorTitle)
	assert.Empty(t, report.Floors[0].Rooms[0].GuestNames)
}
