package repository

// Status es el estado de ciclo de vida de usuarios y tenants.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusInactive }
