package repository

import (
	"context"
	"errors"

	"owl-hotel/internal/domain"

	"github.com/lib/pq"
)

// constraint names from schema.sql
const (
	constraintFloorNo      = "hotel_floors_hotel_floor_no_key"
	constraintRoomNo       = "hotel_rooms_floor_room_no_key"
	constraintRoomFloorFK  = "hotel_rooms_floor_id_fkey"
	constraintIdempotency  = "hotel_bookings_idempotency_key"
	constraintBedNoOverlap = "hotel_bookings_bed_no_overlap"
)

var passThrough = []error{
	domain.ErrValidation,
	domain.ErrDuplicateFloor,
	domain.ErrDuplicateRoom,
	domain.ErrCapacityLocked,
	domain.ErrResourceInUse,
	domain.ErrFloorNotEmpty,
	domain.ErrBookingConflict,
	domain.ErrDuplicateKey,
	domain.ErrOutOfWindow,
	domain.ErrUnknownType,
	domain.ErrNotFound,
	domain.ErrStorage,
	context.Canceled,
	context.DeadlineExceeded,
}

// translateErr maps lib/pq failures onto the domain taxonomy. Errors
// already in the taxonomy are returned unchanged; anything else becomes
// a *domain.StorageError.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range passThrough {
		if errors.Is(err, target) {
			return err
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			switch pqErr.Constraint {
			case constraintFloorNo:
				return domain.ErrDuplicateFloor
			case constraintRoomNo:
				return domain.ErrDuplicateRoom
			case constraintIdempotency:
				return domain.ErrDuplicateKey
			}
		case "23P01": // exclusion_violation
			return domain.ErrBookingConflict
		case "23503": // foreign_key_violation
			if pqErr.Constraint == constraintRoomFloorFK {
				return domain.ErrFloorNotEmpty
			}
			return domain.ErrResourceInUse
		case "23514": // check_violation
			return domain.Validationf("%s", pqErr.Message)
		}
	}
	return domain.NewStorageError(op, err)
}
