package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by repositories, services and the HTTP layer.
// Callers match with errors.Is / errors.As.
var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidRange    = fmt.Errorf("%w: checkout must be after checkin", ErrValidation)
	ErrDuplicateFloor  = errors.New("floor number already exists in hotel")
	ErrDuplicateRoom   = errors.New("room number already exists on floor")
	ErrCapacityLocked  = errors.New("capacity is fixed by room type")
	ErrResourceInUse   = errors.New("resource referenced by active bookings")
	ErrFloorNotEmpty   = errors.New("floor still has rooms")
	ErrBookingConflict = errors.New("booking conflicts with an existing booking")
	ErrDuplicateKey    = errors.New("idempotency key already stored")
	ErrOutOfWindow     = errors.New("dates outside hotel availability window")
	ErrUnknownType     = errors.New("unknown bed type")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage unavailable")
)

// Validationf wraps ErrValidation with a message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with the missing resource.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// BookingConflictError carries the booking that blocks the request.
type BookingConflictError struct {
	RoomID   string
	BedID    string
	Checkin  time.Time
	Checkout time.Time
	// nil when the store only reported a constraint violation
	Conflicting *Booking
}

func (e *BookingConflictError) Error() string {
	target := "room " + e.RoomID
	if e.BedID != "" {
		target = "bed " + e.BedID
	}
	msg := fmt.Sprintf("%s is already booked between %s and %s", target, FormatDate(e.Checkin), FormatDate(e.Checkout))
	if e.Conflicting != nil {
		msg += fmt.Sprintf(" (booking %s, %s..%s)", e.Conflicting.ID, FormatDate(e.Conflicting.Checkin), FormatDate(e.Conflicting.Checkout))
	}
	return msg
}

func (e *BookingConflictError) Unwrap() error { return ErrBookingConflict }

// StorageError wraps a driver failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
