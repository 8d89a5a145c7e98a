package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/models"
	"owl-hotel/internal/repository"

	"go.uber.org/zap"
)

// DefaultAvailabilityDays is the window length used when no dates are given.
const DefaultAvailabilityDays = 7

type AvailabilityService interface {
	GetAvailability(ctx context.Context, req GetAvailabilityRequest) (*models.AvailabilityReport, error)
}

type GetAvailabilityRequest struct {
	OrganizationID string
	HotelID        string
	DateFrom       time.Time // zero: today
	DateTo         time.Time // zero: DateFrom + 7 days
}

type availabilityService struct {
	repo          repository.InventoryRepository
	cache         *AvailabilityCache // nil disables caching
	retryAttempts int
	retryBackoff  time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewAvailabilityService(repo repository.InventoryRepository, cache *AvailabilityCache, retryAttempts int, logger *zap.Logger) AvailabilityService {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &availabilityService{
		repo:          repo,
		cache:         cache,
		retryAttempts: retryAttempts,
		retryBackoff:  50 * time.Millisecond,
		now:           time.Now,
		logger:        logger,
	}
}

func (s *availabilityService) GetAvailability(ctx context.Context, req GetAvailabilityRequest) (*models.AvailabilityReport, error) {
	if req.HotelID == "" {
		return nil, domain.Validationf("hotel id is required")
	}
	from := req.DateFrom
	if from.IsZero() {
		from = s.now()
	}
	to := req.DateTo
	if to.IsZero() {
		to = domain.Day(from).AddDate(0, 0, DefaultAvailabilityDays)
	}
	window, err := domain.NewWindow(from, to)
	if err != nil {
		return nil, err
	}
	if req.OrganizationID != "" {
		if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, req.HotelID); err != nil {
			return nil, err
		}
	}

	// read the generation before the snapshot: a write landing in between
	// bumps it, so what we store below is never addressed again
	generation := ""
	if s.cache != nil {
		if gen, err := s.cache.Generation(ctx, req.HotelID); err == nil {
			generation = gen
			if report, ok := s.cache.Get(ctx, req.HotelID, gen, window); ok {
				return report, nil
			}
		} else {
			s.logger.Warn("Availability cache unavailable", zap.String("hotel_id", req.HotelID), zap.Error(err))
		}
	}

	snap, err := s.snapshot(ctx, req.HotelID, window.Stay())
	if err != nil {
		logFailure(s.logger, "GetAvailability failed", err,
			zap.String("hotel_id", req.HotelID),
			zap.String("date_from", domain.FormatDate(window.From)),
			zap.String("date_to", domain.FormatDate(window.To)),
		)
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	report := Aggregate(snap, window)
	if generation != "" {
		s.cache.Set(ctx, req.HotelID, generation, window, report)
	}
	return report, nil
}

// snapshot retries storage failures with doubling backoff.
func (s *availabilityService) snapshot(ctx context.Context, hotelID string, stay domain.Stay) (*repository.HotelSnapshot, error) {
	backoff := s.retryBackoff
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		var snap *repository.HotelSnapshot
		snap, err = s.repo.Snapshot(ctx, hotelID, stay)
		if err == nil || !errors.Is(err, domain.ErrStorage) || attempt == s.retryAttempts {
			return snap, err
		}
		s.logger.Warn("Snapshot read failed, retrying",
			zap.String("hotel_id", hotelID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, err
}

// Aggregate computes the status tree for a window. It does not read
// storage; bookings outside the window or cancelled are ignored.
func Aggregate(snap *repository.HotelSnapshot, window domain.Window) *models.AvailabilityReport {
	stay := window.Stay()
	report := &models.AvailabilityReport{
		HotelID:   snap.Hotel.ID,
		HotelName: snap.Hotel.Name,
		DateFrom:  domain.FormatDate(window.From),
		DateTo:    domain.FormatDate(window.To),
		RoomTypes: []models.RoomTypeSummary{},
		Floors:    make([]models.FloorAvailability, 0, len(snap.Floors)),
	}

	byRoom := make(map[string][]*domain.Booking)
	for _, b := range snap.Bookings {
		if b.HoldsInventory() && b.Stay().Overlaps(stay) {
			byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
		}
	}
	types := make(map[string]*models.RoomTypeSummary)

	for _, f := range snap.Floors {
		fa := models.FloorAvailability{
			FloorID:    f.ID,
			FloorNo:    f.FloorNo,
			FloorTitle: f.Title,
			Rooms:      make([]models.RoomAvailability, 0, len(f.Rooms)),
		}
		for _, room := range f.Rooms {
			ra := aggregateRoom(room, byRoom[room.ID], stay)
			fa.Rooms = append(fa.Rooms, ra)
			fa.TotalRooms++

			ts, ok := types[room.RoomType]
			if !ok {
				ts = &models.RoomTypeSummary{RoomType: room.RoomType}
				types[room.RoomType] = ts
			}
			ts.TotalRooms++
			ts.TotalBeds += ra.TotalBeds
			ts.AvailableBeds += ra.AvailableBeds

			switch ra.Status {
			case models.RoomAvailable:
				fa.AvailableRooms++
				ts.AvailableRooms++
			case models.RoomOccupied:
				fa.OccupiedRooms++
			default:
				fa.PartiallyOccupiedRooms++
			}
			report.TotalBeds += ra.TotalBeds
			report.AvailableBeds += ra.AvailableBeds
			report.OccupiedBeds += ra.OccupiedBeds
		}
		report.TotalRooms += fa.TotalRooms
		report.AvailableRooms += fa.AvailableRooms
		report.OccupiedRooms += fa.OccupiedRooms
		report.PartiallyOccupiedRooms += fa.PartiallyOccupiedRooms
		report.Floors = append(report.Floors, fa)
	}

	for _, ts := range types {
		report.RoomTypes = append(report.RoomTypes, *ts)
	}
	sort.Slice(report.RoomTypes, func(i, j int) bool { return report.RoomTypes[i].RoomType < report.RoomTypes[j].RoomType })
	return report
}

// aggregateRoom derives bed and room statuses. Beds keep the room's order.
// A bed is OCCUPIED when a booking in the window holds it, otherwise it
// shows its manual override, otherwise AVAILABLE.
func aggregateRoom(room *domain.Room, bookings []*domain.Booking, stay domain.Stay) models.RoomAvailability {
	ra := models.RoomAvailability{
		RoomID:     room.ID,
		RoomNo:     room.RoomNo,
		RoomType:   room.RoomType,
		TotalBeds:  len(room.Beds),
		GuestNames: []string{},
		Beds:       make([]models.BedAvailability, 0, len(room.Beds)),
	}

	var inRoom []*domain.Booking
	seenGuest := make(map[string]bool)
	var checkin, checkout time.Time
	for _, b := range bookings {
		if b.RoomID != room.ID || !b.HoldsInventory() || !b.Stay().Overlaps(stay) {
			continue
		}
		inRoom = append(inRoom, b)
		if b.GuestName != "" && !seenGuest[b.GuestName] {
			seenGuest[b.GuestName] = true
			ra.GuestNames = append(ra.GuestNames, b.GuestName)
		}
		if checkin.IsZero() || b.Checkin.Before(checkin) {
			checkin = b.Checkin
		}
		if b.Checkout.After(checkout) {
			checkout = b.Checkout
		}
	}
	ra.CheckinDate = domain.FormatDate(checkin)
	ra.CheckoutDate = domain.FormatDate(checkout)

	for _, bed := range room.Beds {
		ba := models.BedAvailability{BedID: bed.ID, BedNo: bed.BedNo, Status: string(domain.BedAvailable)}
		if bed.Override != "" {
			ba.Status = string(bed.Override)
		}
		for _, b := range inRoom {
			if b.Covers(bed.ID) {
				ba.Status = string(domain.BedOccupied)
				ba.GuestName = b.GuestName
				ba.BookingID = b.ID
				break
			}
		}
		switch ba.Status {
		case string(domain.BedAvailable):
			ra.AvailableBeds++
		case string(domain.BedOccupied):
			ra.OccupiedBeds++
		}
		ra.Beds = append(ra.Beds, ba)
	}

	switch {
	case ra.AvailableBeds == ra.TotalBeds:
		ra.Status = models.RoomAvailable
	case ra.OccupiedBeds == ra.TotalBeds:
		ra.Status = models.RoomOccupied
	default:
		ra.Status = models.RoomPartiallyOccupied
	}
	return ra
}
