package httpapi

import (
	"context"
	"errors"
	"net/http"

	"owl-hotel/internal/domain"

	"go.uber.org/zap"
)

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrOutOfWindow),
		errors.Is(err, domain.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateFloor),
		errors.Is(err, domain.ErrDuplicateRoom),
		errors.Is(err, domain.ErrCapacityLocked),
		errors.Is(err, domain.ErrResourceInUse),
		errors.Is(err, domain.ErrFloorNotEmpty),
		errors.Is(err, domain.ErrBookingConflict),
		errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	var conflict *domain.BookingConflictError
	if errors.As(err, &conflict) && conflict.Conflicting != nil {
		writeJSON(w, status, FailWith(err.Error(), map[string]any{
			"conflicting_booking": bookingToJSON(conflict.Conflicting),
		}))
		return
	}
	if status == http.StatusInternalServerError {
		writeJSON(w, status, Fail("internal error"))
		return
	}
	writeJSON(w, status, Fail(err.Error()))
}
