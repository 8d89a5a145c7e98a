package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/events"
	"owl-hotel/internal/models"
	"owl-hotel/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService creates bookings and drives their lifecycle. The
// conflict check runs inside the same write unit as the insert.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error)
	// CheckBooking is a read-only pre-flight; CreateBooking re-checks.
	CheckBooking(ctx context.Context, req CheckBookingRequest) (*CheckBookingResponse, error)
	GetBooking(ctx context.Context, req GetBookingRequest) (*domain.Booking, error)
	ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error)

	ConfirmBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error)

	OccupiedDates(ctx context.Context, req OccupiedDatesRequest) (*OccupiedDatesResponse, error)
	// CompleteDueBookings completes confirmed bookings whose checkout is on
	// or before asOf and returns how many were moved.
	CompleteDueBookings(ctx context.Context, asOf time.Time) (int, error)
}

type bookingService struct {
	repo     repository.InventoryRepository
	notifier *changeNotifier
	now      func() time.Time
	logger   *zap.Logger
}

func NewBookingService(repo repository.InventoryRepository, cache *AvailabilityCache, publisher events.Publisher, logger *zap.Logger) BookingService {
	return &bookingService{
		repo:     repo,
		notifier: newChangeNotifier(cache, publisher, logger),
		now:      time.Now,
		logger:   logger,
	}
}

// ============================================
// Requests / responses
// ============================================

type CreateBookingRequest struct {
	OrganizationID string
	HotelID        string // optional; must own the room when set
	RoomID         string
	BedID          string // empty books the whole room
	GuestName      string
	GuestCount     int
	Checkin        time.Time
	Checkout       time.Time
	IdempotencyKey string
}

type CreateBookingResponse struct {
	Booking *domain.Booking
	// Replayed is set when IdempotencyKey matched an earlier booking.
	Replayed bool
}

type CheckBookingRequest struct {
	OrganizationID string
	RoomID         string
	BedID          string
	Checkin        time.Time
	Checkout       time.Time
}

type CheckBookingResponse struct {
	Conflict           bool            `json:"conflict"`
	ConflictingBooking *domain.Booking `json:"conflicting_booking,omitempty"`
}

type GetBookingRequest struct {
	OrganizationID string
	BookingID      string
}

type ListBookingsRequest struct {
	OrganizationID string
	HotelID        string // required
	RoomID         string
	BedID          string
	Status         string
	Page           int
	Size           int
}

type ListBookingsResponse struct {
	Items      []*domain.Booking         `json:"items"`
	Pagination models.BackendPagination `json:"pagination"`
}

type BookingActionRequest struct {
	OrganizationID string
	BookingID      string
}

type OccupiedDatesRequest struct {
	OrganizationID string
	RoomID         string
}

type OccupiedDate struct {
	BookingID    string `json:"booking_id"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
	BedNumber    int    `json:"bed_number,omitempty"`
	Status       string `json:"status"`
}

type OccupiedDatesResponse struct {
	Items []OccupiedDate `json:"items"`
}

// ============================================
// Create / check
// ============================================

func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	stay, err := domain.NewStay(req.Checkin, req.Checkout)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.GuestName) == "" {
		return nil, domain.Validationf("guest name is required")
	}
	guests := req.GuestCount
	if guests == 0 {
		guests = 1
	}
	if guests < 0 {
		return nil, domain.Validationf("guest count must be positive")
	}

	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindRoom, req.RoomID)
	if err != nil {
		return nil, err
	}
	if req.HotelID != "" && req.HotelID != hotelID {
		return nil, domain.NotFoundf("room %s in hotel %s", req.RoomID, req.HotelID)
	}

	now := s.now().UTC()
	booking := &domain.Booking{
		ID:             uuid.NewString(),
		HotelID:        hotelID,
		RoomID:         req.RoomID,
		BedID:          req.BedID,
		GuestName:      strings.TrimSpace(req.GuestName),
		GuestCount:     guests,
		Checkin:        stay.Checkin,
		Checkout:       stay.Checkout,
		Status:         domain.BookingPending,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var replay *domain.Booking
	create := func(ctx context.Context, tx repository.HotelTx) error {
		if booking.IdempotencyKey != "" {
			prev, err := tx.BookingByIdempotencyKey(ctx, booking.IdempotencyKey)
			switch {
			case err == nil:
				if prev.RoomID != booking.RoomID || prev.BedID != booking.BedID ||
					!prev.Checkin.Equal(booking.Checkin) || !prev.Checkout.Equal(booking.Checkout) {
					return domain.Validationf("idempotency key %q was used for a different booking", booking.IdempotencyKey)
				}
				replay = prev
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		if !tx.Hotel().AllowsStay(stay) {
			return fmt.Errorf("%w: %s..%s", domain.ErrOutOfWindow, domain.FormatDate(stay.Checkin), domain.FormatDate(stay.Checkout))
		}
		room, err := tx.GetRoom(ctx, booking.RoomID)
		if err != nil {
			return err
		}
		if booking.BedID != "" {
			bed := room.Bed(booking.BedID)
			if bed == nil {
				return domain.NotFoundf("bed %s in room %s", booking.BedID, room.ID)
			}
			booking.BedNo = bed.BedNo
		}

		existing, err := tx.RoomBookings(ctx, room.ID)
		if err != nil {
			return err
		}
		if res := CheckConflict(room.ID, booking.BedID, stay, existing); res.Conflict {
			return &domain.BookingConflictError{
				RoomID:      room.ID,
				BedID:       booking.BedID,
				Checkin:     stay.Checkin,
				Checkout:    stay.Checkout,
				Conflicting: res.ConflictingBooking,
			}
		}
		return tx.InsertBooking(ctx, booking)
	}
	err = withVisibleHotel(ctx, s.repo, req.OrganizationID, hotelID, create)
	if errors.Is(err, domain.ErrDuplicateKey) {
		// a concurrent request stored the key first: the retry replays it
		err = withVisibleHotel(ctx, s.repo, req.OrganizationID, hotelID, create)
	}
	if err != nil {
		logFailure(s.logger, "CreateBooking failed", err,
			zap.String("hotel_id", hotelID),
			zap.String("room_id", req.RoomID),
			zap.String("bed_id", req.BedID),
			zap.String("checkin", domain.FormatDate(stay.Checkin)),
			zap.String("checkout", domain.FormatDate(stay.Checkout)),
		)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if replay != nil {
		return &CreateBookingResponse{Booking: replay, Replayed: true}, nil
	}

	s.notifier.committed(ctx, events.Event{
		Type:      events.BookingCreated,
		HotelID:   hotelID,
		RoomID:    booking.RoomID,
		BedID:     booking.BedID,
		BookingID: booking.ID,
		Status:    string(booking.Status),
	})
	return &CreateBookingResponse{Booking: booking}, nil
}

func (s *bookingService) CheckBooking(ctx context.Context, req CheckBookingRequest) (*CheckBookingResponse, error) {
	stay, err := domain.NewStay(req.Checkin, req.Checkout)
	if err != nil {
		return nil, err
	}
	room, err := s.repo.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	hotel, err := visibleHotel(ctx, s.repo, req.OrganizationID, room.HotelID)
	if err != nil {
		return nil, err
	}
	if !hotel.AllowsStay(stay) {
		return nil, fmt.Errorf("%w: %s..%s", domain.ErrOutOfWindow, domain.FormatDate(stay.Checkin), domain.FormatDate(stay.Checkout))
	}
	if req.BedID != "" && room.Bed(req.BedID) == nil {
		return nil, domain.NotFoundf("bed %s in room %s", req.BedID, room.ID)
	}

	existing, err := s.repo.RoomBookings(ctx, room.ID)
	if err != nil {
		logFailure(s.logger, "CheckBooking failed", err, zap.String("room_id", room.ID))
		return nil, fmt.Errorf("failed to check booking: %w", err)
	}
	res := CheckConflict(room.ID, req.BedID, stay, existing)
	return &CheckBookingResponse{Conflict: res.Conflict, ConflictingBooking: res.ConflictingBooking}, nil
}

// ============================================
// Reads
// ============================================

func (s *bookingService) GetBooking(ctx context.Context, req GetBookingRequest) (*domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, b.HotelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundf("booking %s", req.BookingID)
		}
		return nil, err
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error) {
	if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, req.HotelID); err != nil {
		return nil, err
	}
	filter := repository.BookingFilter{HotelID: req.HotelID, RoomID: req.RoomID, BedID: req.BedID}
	if req.Status != "" {
		st, err := domain.ParseBookingStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}

	page, size := models.NormalizePage(req.Page, req.Size)
	items, total, err := s.repo.ListBookings(ctx, filter, page, size)
	if err != nil {
		logFailure(s.logger, "ListBookings failed", err, zap.String("hotel_id", req.HotelID))
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return &ListBookingsResponse{
		Items:      items,
		Pagination: models.BackendPagination{Size: size, Page: page, Count: total},
	}, nil
}

// OccupiedDates lists the non-cancelled stays of a room for date pickers.
func (s *bookingService) OccupiedDates(ctx context.Context, req OccupiedDatesRequest) (*OccupiedDatesResponse, error) {
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindRoom, req.RoomID)
	if err != nil {
		return nil, err
	}
	if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, hotelID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.RoomBookings(ctx, req.RoomID)
	if err != nil {
		logFailure(s.logger, "OccupiedDates failed", err, zap.String("room_id", req.RoomID))
		return nil, fmt.Errorf("failed to load occupied dates: %w", err)
	}

	items := make([]OccupiedDate, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, OccupiedDate{
			BookingID:    b.ID,
			CheckinDate:  domain.FormatDate(b.Checkin),
			CheckoutDate: domain.FormatDate(b.Checkout),
			BedNumber:    b.BedNo,
			Status:       string(b.Status),
		})
	}
	return &OccupiedDatesResponse{Items: items}, nil
}

// ============================================
// Lifecycle
// ============================================

func (s *bookingService) ConfirmBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	return s.transition(ctx, req, domain.BookingConfirmed, s.now())
}

func (s *bookingService) CancelBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	return s.transition(ctx, req, domain.BookingCancelled, s.now())
}

func (s *bookingService) CompleteBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	return s.transition(ctx, req, domain.BookingCompleted, s.now())
}

// transition moves a booking to target. Repeating the current status is
// a no-op that returns the booking unchanged. A booking completes only
// once its checkout is on or before asOf.
func (s *bookingService) transition(ctx context.Context, req BookingActionRequest, target domain.BookingStatus, asOf time.Time) (*domain.Booking, error) {
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindBooking, req.BookingID)
	if err != nil {
		return nil, err
	}

	var booking *domain.Booking
	changed := false
	err = withVisibleHotel(ctx, s.repo, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		b, err := tx.GetBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		booking = b
		if b.Status == target {
			return nil
		}
		if !domain.CanTransition(b.Status, target) {
			return domain.Validationf("booking %s cannot move from %s to %s", b.ID, b.Status, target)
		}
		if target == domain.BookingCompleted && b.Checkout.After(domain.Day(asOf)) {
			return domain.Validationf("booking %s cannot complete before its checkout %s", b.ID, domain.FormatDate(b.Checkout))
		}
		at := s.now().UTC()
		if err := tx.UpdateBookingStatus(ctx, b.ID, target, at); err != nil {
			return err
		}
		b.Status = target
		b.UpdatedAt = at
		changed = true
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Booking transition failed", err,
			zap.String("booking_id", req.BookingID),
			zap.String("target", string(target)),
		)
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if changed {
		s.notifier.committed(ctx, events.Event{
			Type:      events.BookingStatusChanged,
			HotelID:   hotelID,
			RoomID:    booking.RoomID,
			BedID:     booking.BedID,
			BookingID: booking.ID,
			Status:    string(booking.Status),
		})
	}
	return booking, nil
}

func (s *bookingService) CompleteDueBookings(ctx context.Context, asOf time.Time) (int, error) {
	due, _, err := s.repo.ListBookings(ctx, repository.BookingFilter{
		Status:         domain.BookingConfirmed,
		CheckoutBefore: domain.Day(asOf),
	}, 1, 0)
	if err != nil {
		logFailure(s.logger, "CompleteDueBookings failed", err)
		return 0, fmt.Errorf("failed to list due bookings: %w", err)
	}

	completed := 0
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		if _, err := s.transition(ctx, BookingActionRequest{BookingID: b.ID}, domain.BookingCompleted, asOf); err != nil {
			s.logger.Warn("Failed to complete booking", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		completed++
	}
	if completed > 0 {
		s.logger.Info("Completed due bookings", zap.Int("count", completed), zap.Int("due", len(due)))
	}
	return completed, nil
}
