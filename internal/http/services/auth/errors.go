package auth

import "errors"

var (
	ErrMissingFields           = errors.New("missing required fields")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrTenantSuspended         = errors.New("tenant suspended")
	ErrWeakPassword            = errors.New("password does not meet policy")
	ErrTenantNameAlreadyExists = errors.New("tenant name already exists")
	ErrUserAlreadyExists       = errors.New("user already exists")
)
