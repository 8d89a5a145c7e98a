package httpapi

import (
	"context"
	"net/http"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// IdempotencyHeader may carry the booking idempotency key instead of the body.
const IdempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	bookings service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// POST /api/v1/hotel-bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	checkin, err := domain.ParseDate(body.CheckinDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	checkout, err := domain.ParseDate(body.CheckoutDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	key := body.IdempotencyKey
	if key == "" {
		key = r.Header.Get(IdempotencyHeader)
	}

	resp, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		OrganizationID: organizationID(r),
		HotelID:        body.Hotel,
		RoomID:         body.Room,
		BedID:          body.Bed,
		GuestName:      body.GuestName,
		GuestCount:     body.GuestCount,
		Checkin:        checkin,
		Checkout:       checkout,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, Ok(bookingToJSON(resp.Booking)))
}

// POST /api/v1/hotel-bookings/check
func (h *BookingHandler) CheckBooking(w http.ResponseWriter, r *http.Request) {
	var body checkBookingBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	checkin, err := domain.ParseDate(body.CheckinDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	checkout, err := domain.ParseDate(body.CheckoutDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.bookings.CheckBooking(r.Context(), service.CheckBookingRequest{
		OrganizationID: organizationID(r),
		RoomID:         body.Room,
		BedID:          body.Bed,
		Checkin:        checkin,
		Checkout:       checkout,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := map[string]any{"conflict": resp.Conflict}
	if resp.ConflictingBooking != nil {
		out["conflicting_booking"] = bookingToJSON(resp.ConflictingBooking)
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// GET /api/v1/hotel-bookings?hotel&room&bed&status&page&size
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.bookings.ListBookings(r.Context(), service.ListBookingsRequest{
		OrganizationID: organizationID(r),
		HotelID:        q.Get("hotel"),
		RoomID:         q.Get("room"),
		BedID:          q.Get("bed"),
		Status:         q.Get("status"),
		Page:           parseInt(q.Get("page"), 1),
		Size:           parseInt(q.Get("size"), 20),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items":      bookingsToJSON(resp.Items),
		"pagination": resp.Pagination,
	}))
}

// GET /api/v1/hotel-bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.GetBooking(r.Context(), service.GetBookingRequest{
		OrganizationID: organizationID(r),
		BookingID:      mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(bookingToJSON(b)))
}

// POST /api/v1/hotel-bookings/{id}/confirm
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.ConfirmBooking)
}

// POST /api/v1/hotel-bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.CancelBooking)
}

// POST /api/v1/hotel-bookings/{id}/complete
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.CompleteBooking)
}

type bookingAction func(ctx context.Context, req service.BookingActionRequest) (*domain.Booking, error)

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, action bookingAction) {
	b, err := action(r.Context(), service.BookingActionRequest{
		OrganizationID: organizationID(r),
		BookingID:      mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(bookingToJSON(b)))
}

// GET /api/v1/hotel-rooms/{id}/occupied-dates
func (h *BookingHandler) OccupiedDates(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bookings.OccupiedDates(r.Context(), service.OccupiedDatesRequest{
		OrganizationID: organizationID(r),
		RoomID:         mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Items))
}
