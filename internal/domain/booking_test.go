package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BookingPending, BookingConfirmed))
	assert.True(t, CanTransition(BookingPending, BookingCancelled))
	assert.True(t, CanTransition(BookingConfirmed, BookingCompleted))
	assert.True(t, CanTransition(BookingConfirmed, BookingCancelled))

	assert.False(t, CanTransition(BookingPending, BookingCompleted))
	assert.False(t, CanTransition(BookingCancelled, BookingConfirmed))
	assert.False(t, CanTransition(BookingCompleted, BookingCancelled))
	assert.False(t, CanTransition(BookingConfirmed, BookingPending))
}

func TestBooking_InventoryFlags(t *testing.T) {
	b := &Booking{RoomID: "r1", BedID: "b1", Status: BookingCompleted}
	assert.True(t, b.HoldsInventory())
	assert.False(t, b.Active())
	assert.True(t, b.Covers("b1"))
	assert.False(t, b.Covers("b2"))

	b.Status = BookingCancelled
	assert.False(t, b.HoldsInventory())

	whole := &Booking{RoomID: "r1", Status: BookingPending}
	assert.True(t, whole.WholeRoom())
	assert.True(t, whole.Active())
	assert.True(t, whole.Covers("any-bed"))
}

func TestParseBookingStatus(t *testing.T) {
	st, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, BookingConfirmed, st)

	_, err = ParseBookingStatus("checked-in")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseOverride(t *testing.T) {
	st, err := ParseOverride("need_cleaning")
	require.NoError(t, err)
	assert.Equal(t, BedNeedCleaning, st)

	st, err = ParseOverride("AVAILABLE")
	require.NoError(t, err)
	assert.Equal(t, BedStatus(""), st)

	_, err = ParseOverride("OCCUPIED")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestHotel_AllowsStay(t *testing.T) {
	from := mustDate(t, "2025-06-01").Checkin
	to := mustDate(t, "2025-06-30").Checkin
	h := &Hotel{ID: "7", AvailableFrom: &from, AvailableTo: &to}

	assert.True(t, h.AllowsStay(stay(t, "2025-06-01", "2025-06-30")))
	assert.False(t, h.AllowsStay(stay(t, "2025-05-31", "2025-06-02")))
	assert.False(t, h.AllowsStay(stay(t, "2025-06-29", "2025-07-01")))

	open := &Hotel{ID: "8"}
	assert.True(t, open.AllowsStay(stay(t, "2030-01-01", "2030-01-02")))
}

func TestErrorTaxonomy(t *testing.T) {
	conflict := &BookingConflictError{RoomID: "r1", BedID: "b1"}
	assert.True(t, errors.Is(conflict, ErrBookingConflict))

	var ce *BookingConflictError
	assert.True(t, errors.As(error(conflict), &ce))

	se := NewStorageError("list floors", errors.New("connection reset"))
	assert.True(t, errors.Is(se, ErrStorage))
	assert.Nil(t, NewStorageError("noop", nil))
	assert.Contains(t, se.Error(), "connection reset")
}
