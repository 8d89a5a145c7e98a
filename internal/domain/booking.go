package domain

import (
	"strings"
	"time"
)

// BookingStatus lifecycle: PENDING -> CONFIRMED -> COMPLETED, and
// PENDING|CONFIRMED -> CANCELLED.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// ParseBookingStatus accepts any casing.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return st, nil
	}
	return "", Validationf("unknown booking status %q", s)
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking reserves a bed, or a whole room when BedID is empty, for the
// nights [Checkin, Checkout).
type Booking struct {
	ID             string        `db:"booking_id" json:"id"`
	HotelID        string        `db:"hotel_id" json:"hotel"`
	RoomID         string        `db:"room_id" json:"room"`
	BedID          string        `db:"bed_id" json:"bed,omitempty"`
	BedNo          int           `db:"bed_no" json:"bed_number,omitempty"`
	GuestName      string        `db:"guest_name" json:"guest_name"`
	GuestCount     int           `db:"guest_count" json:"guest_count"`
	Checkin        time.Time     `db:"checkin" json:"-"`
	Checkout       time.Time     `db:"checkout" json:"-"`
	Status         BookingStatus `db:"status" json:"status"`
	IdempotencyKey string        `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// Stay returns the booked night range.
func (b *Booking) Stay() Stay {
	return Stay{Checkin: b.Checkin, Checkout: b.Checkout}
}

// WholeRoom reports whether the booking holds every bed of its room.
func (b *Booking) WholeRoom() bool {
	return b.BedID == ""
}

// HoldsInventory is true for every status except CANCELLED.
func (b *Booking) HoldsInventory() bool {
	return b.Status != BookingCancelled
}

// Active bookings block structural deletes.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Covers reports whether the booking holds bed bedID of its room.
func (b *Booking) Covers(bedID string) bool {
	return b.WholeRoom() || b.BedID == bedID
}

// Clone returns a copy.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
