package service

import (
	"errors"

	"owl-hotel/internal/domain"

	"go.uber.org/zap"
)

// logFailure logs a failed operation. Rejections the caller can act on
// (validation, conflicts, missing ids) are logged at info; anything else
// is an error.
func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isRejection(err) {
		logger.Info(msg, fields...)
		return
	}
	logger.Error(msg, fields...)
}

func isRejection(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrDuplicateFloor,
		domain.ErrDuplicateRoom,
		domain.ErrCapacityLocked,
		domain.ErrResourceInUse,
		domain.ErrFloorNotEmpty,
		domain.ErrBookingConflict,
		domain.ErrDuplicateKey,
		domain.ErrOutOfWindow,
		domain.ErrUnknownType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
