package service

import "owl-hotel/internal/domain"

// ConflictResult names the first existing booking that blocks a request.
type ConflictResult struct {
	Conflict           bool
	ConflictingBooking *domain.Booking
}

// CheckConflict tests a requested stay against existing bookings of a
// room. bedID == "" requests the whole room, which collides with any
// booking in it; a whole-room booking likewise blocks every bed.
// Cancelled bookings never conflict. The input is not assumed to be
// pre-filtered.
func CheckConflict(roomID, bedID string, stay domain.Stay, existing []*domain.Booking) ConflictResult {
	for _, b := range existing {
		if b == nil || !b.HoldsInventory() || b.RoomID != roomID {
			continue
		}
		if bedID != "" && !b.Covers(bedID) {
			continue
		}
		if b.Stay().Overlaps(stay) {
			return ConflictResult{Conflict: true, ConflictingBooking: b}
		}
	}
	return ConflictResult{}
}
