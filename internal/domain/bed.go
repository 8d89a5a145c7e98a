package domain

import "strings"

// BedStatus is either a derived status (AVAILABLE / OCCUPIED) or a
// manual override stored on the bed.
type BedStatus string

const (
	BedAvailable        BedStatus = "AVAILABLE"
	BedOccupied         BedStatus = "OCCUPIED"
	BedNeedCleaning     BedStatus = "NEED_CLEANING"
	BedUnderMaintenance BedStatus = "UNDER_MAINTENANCE"
)

// Bed belongs to exactly one room. BedNo is unique within the room and
// never reused while the bed exists.
type Bed struct {
	ID     string `db:"bed_id" json:"id"`
	RoomID string `db:"room_id" json:"room"`
	BedNo  int    `db:"bed_no" json:"bed_number"`
	// manual override, empty when none
	Override BedStatus `db:"status" json:"override_status,omitempty"`
}

// ParseOverride accepts the statuses an operator may set by hand.
// AVAILABLE clears the override; OCCUPIED is derived from bookings only.
func ParseOverride(s string) (BedStatus, error) {
	switch BedStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case BedAvailable, "":
		return "", nil
	case BedNeedCleaning:
		return BedNeedCleaning, nil
	case BedUnderMaintenance:
		return BedUnderMaintenance, nil
	case BedOccupied:
		return "", Validationf("bed status OCCUPIED is derived from bookings and cannot be set")
	default:
		return "", Validationf("unknown bed status %q", s)
	}
}
