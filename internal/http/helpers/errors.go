package helpers

import (
	"errors"

	"github.com/teamnest/teamnest/internal/domain/repository"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/tenancy"
)

// DomainError traduce los sentinels de repository y tenancy. Lo que no
// reconoce sale como 500 con la causa adjunta.
func DomainError(err error) *httperrors.AppError {
	var appErr *httperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, tenancy.ErrTenantNotResolved):
		return httperrors.ErrTenantNotResolved
	case errors.Is(err, repository.ErrNotFound):
		return httperrors.ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return httperrors.ErrConflict
	case errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrTenantRequired),
		errors.Is(err, repository.ErrRoleScope):
		return httperrors.ErrBadRequest.WithDetail(err.Error())
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
