package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date wire format.
const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Stay is a half-open night range [Checkin, Checkout).
type Stay struct {
	Checkin  time.Time
	Checkout time.Time
}

// NewStay normalizes both ends to calendar dates and validates ordering.
func NewStay(checkin, checkout time.Time) (Stay, error) {
	s := Stay{Checkin: Day(checkin), Checkout: Day(checkout)}
	if err := s.Validate(); err != nil {
		return Stay{}, err
	}
	return s, nil
}

// Validate returns ErrInvalidRange unless Checkout > Checkin.
func (s Stay) Validate() error {
	if s.Checkin.IsZero() || s.Checkout.IsZero() {
		return Validationf("checkin and checkout are required")
	}
	if !s.Checkout.After(s.Checkin) {
		return fmt.Errorf("%w (checkin %s, checkout %s)", ErrInvalidRange, FormatDate(s.Checkin), FormatDate(s.Checkout))
	}
	return nil
}

// Overlaps is the half-open interval test: a back-to-back stay
// (one checkout equal to the other checkin) does not overlap.
func (s Stay) Overlaps(o Stay) bool {
	return s.Checkin.Before(o.Checkout) && s.Checkout.After(o.Checkin)
}

// Nights is the number of nights covered.
func (s Stay) Nights() int {
	return int(s.Checkout.Sub(s.Checkin).Hours() / 24)
}

// Window is the half-open calendar range [From, To) of an availability
// query: it covers the nights From .. To-1, so a stay checking in on To
// or checking out on From falls outside it.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow normalizes both ends and requires To after From.
func NewWindow(from, to time.Time) (Window, error) {
	if from.IsZero() || to.IsZero() {
		return Window{}, Validationf("date_from and date_to are required")
	}
	w := Window{From: Day(from), To: Day(to)}
	if !w.To.After(w.From) {
		return Window{}, fmt.Errorf("%w (date_from %s, date_to %s)", ErrInvalidRange, FormatDate(w.From), FormatDate(w.To))
	}
	return w, nil
}

// Stay is the night range the window covers.
func (w Window) Stay() Stay {
	return Stay{Checkin: w.From, Checkout: w.To}
}
