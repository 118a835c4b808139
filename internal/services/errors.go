package services

import (
	"errors"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/reconcile"

	"gorm.io/gorm"
)

// configError reports an invalid rule or category setup.
func configError(err error) *apperrors.AppError {
	return apperrors.WrapWithMessage(apperrors.ErrInvalidConfig, err.Error(), err)
}

// matchError maps reconciliation invariant violations to application errors.
func matchError(err error) error {
	switch {
	case errors.Is(err, reconcile.ErrAlreadyMatched):
		return apperrors.Wrap(apperrors.ErrAlreadyMatched, err)
	case errors.Is(err, reconcile.ErrPairRejected):
		return apperrors.Wrap(apperrors.ErrPairRejected, err)
	case errors.Is(err, reconcile.ErrNotPrivateExpense):
		return apperrors.Wrap(apperrors.ErrNotPrivateExpense, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// notFound maps gorm's record-not-found to the given sentinel.
func notFound(err error, sentinel *apperrors.AppError) *apperrors.AppError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
