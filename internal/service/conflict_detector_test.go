package service

import (
	"testing"

	"owl-hotel/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConflict(t *testing.T) {
	existing := []*domain.Booking{{
		ID: "bk1", RoomID: "r1", BedID: "b1", Status: domain.BookingConfirmed,
		Checkin: date(t, "2025-06-10"), Checkout: date(t, "2025-06-15"),
	}}

	tests := []struct {
		name     string
		bedID    string
		checkin  string
		checkout string
		conflict bool
	}{
		{"overlapping tail", "b1", "2025-06-12", "2025-06-18", true},
		{"ends on checkin day", "b1", "2025-06-01", "2025-06-10", false},
		{"starts on checkout day", "b1", "2025-06-15", "2025-06-20", false},
		{"contained", "b1", "2025-06-11", "2025-06-12", true},
		{"other bed", "b2", "2025-06-12", "2025-06-18", false},
		{"whole room request", "", "2025-06-14", "2025-06-16", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay, err := domain.NewStay(date(t, tt.checkin), date(t, tt.checkout))
			require.NoError(t, err)
			res := CheckConflict("r1", tt.bedID, stay, existing)
			assert.Equal(t, tt.conflict, res.Conflict)
			if tt.conflict {
				assert.Equal(t, "bk1", res.ConflictingBooking.ID)
			} else {
				assert.Nil(t, res.ConflictingBooking)
			}
		})
	}
}

func TestCheckConflict_IgnoresCancelledAndOtherRooms(t *testing.T) {
	stay, err := domain.NewStay(date(t, "2025-06-10"), date(t, "2025-06-12"))
	require.NoError(t, err)
	existing := []*domain.Booking{
		{ID: "c", RoomID: "r1", BedID: "b1", Status: domain.BookingCancelled, Checkin: stay.Checkin, Checkout: stay.Checkout},
		{ID: "o", RoomID: "r2", BedID: "b1", Status: domain.BookingPending, Checkin: stay.Checkin, Checkout: stay.Checkout},
		nil,
	}
	assert.False(t, CheckConflict("r1", "b1", stay, existing).Conflict)
}

func TestCheckConflict_WholeRoomBookingBlocksBeds(t *testing.T) {
	stay, err := domain.NewStay(date(t, "2025-06-10"), date(t, "2025-06-12"))
	require.NoError(t, err)
	existing := []*domain.Booking{
		{ID: "w", RoomID: "r1", Status: domain.BookingPending, Checkin: stay.Checkin, Checkout: stay.Checkout},
	}
	res := CheckConflict("r1", "b2", stay, existing)
	require.True(t, res.Conflict)
	assert.Equal(t, "w", res.ConflictingBooking.ID)
}
