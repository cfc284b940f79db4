// Package services holds the booking, account, table and review use cases.
// Handlers translate HTTP to these calls; every returned error is an
// *apperrors.AppError.
package services

import (
	"errors"

	"table-reservation-api/apperrors"
	"table-reservation-api/repository"
)

// storeError maps repository sentinels to client errors. Anything else is
// reported as internal with the given action in the log-facing cause.
func storeError(err error, notFound, conflict, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound) && notFound != "":
		return apperrors.NotFound(notFound)
	case errors.Is(err, repository.ErrAlreadyExists) && conflict != "":
		return apperrors.Conflict(conflict)
	default:
		return apperrors.Internal("failed to "+action, err)
	}
}
