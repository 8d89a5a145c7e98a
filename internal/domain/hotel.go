package domain

import "time"

// Hotel is the reference record the inventory hangs off. Hotels are
// owned by an organization managed outside this service.
type Hotel struct {
	ID             string     `db:"hotel_id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization"`
	Name           string     `db:"name" json:"name"`
	Status         string     `db:"status" json:"status"`
	AvailableFrom  *time.Time `db:"available_from" json:"-"` // nullable
	AvailableTo    *time.Time `db:"available_to" json:"-"`   // nullable
}

const (
	HotelStatusActive   = "active"
	HotelStatusInactive = "inactive"
)

// VisibleTo reports whether an organization may see the hotel.
// An empty organization means no scoping was requested.
func (h *Hotel) VisibleTo(organizationID string) bool {
	return organizationID == "" || h.OrganizationID == "" || h.OrganizationID == organizationID
}

// AllowsStay checks the stay against the availability window: the
// guest checks in on or after AvailableFrom and leaves by AvailableTo.
// Open ends are unbounded.
func (h *Hotel) AllowsStay(s Stay) bool {
	if h.AvailableFrom != nil && s.Checkin.Before(Day(*h.AvailableFrom)) {
		return false
	}
	if h.AvailableTo != nil && s.Checkout.After(Day(*h.AvailableTo)) {
		return false
	}
	return true
}

// Clone returns a deep copy.
func (h *Hotel) Clone() *Hotel {
	if h == nil {
		return nil
	}
	c := *h
	if h.AvailableFrom != nil {
		t := *h.AvailableFrom
		c.AvailableFrom = &t
	}
	if h.AvailableTo != nil {
		t := *h.AvailableTo
		c.AvailableTo = &t
	}
	return &c
}
