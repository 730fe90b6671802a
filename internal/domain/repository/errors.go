package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe (o no es
	// visible bajo el TenantFilter usado).
	ErrNotFound = errors.New("not found")

	// ErrConflict indica violación de unicidad (email, nombre de tenant,
	// token_hash).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTenantRequired: la entidad es tenant-scoped y no se dio tenant.
	ErrTenantRequired = errors.New("tenant id required")

	// ErrRoleScope: scope y tenant id del rol son inconsistentes.
	ErrRoleScope = errors.New("role scope does not match tenant id")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
