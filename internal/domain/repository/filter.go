package repository

import "github.com/google/uuid"

// TenantFilter es el predicado de tenant que toda lectura tenant-scoped
// recibe. El valor cero no filtra (vista de plataforma).
type TenantFilter struct {
	// TenantID, si no es nil, limita a filas con ese tenant_id.
	TenantID *uuid.UUID
	// IncludeShared agrega las filas con tenant_id NULL (roles de plataforma).
	IncludeShared bool
}

// Unscoped retorna el filtro vacío.
func Unscoped() TenantFilter { return TenantFilter{} }

// ForTenant filtra por un tenant.
func ForTenant(id uuid.UUID) TenantFilter { return TenantFilter{TenantID: &id} }

// Scoped reporta si el filtro restringe por tenant.
func (f TenantFilter) Scoped() bool { return f.TenantID != nil }

// Matches evalúa el predicado en memoria contra el tenant de una fila.
func (f TenantFilter) Matches(rowTenant *uuid.UUID) bool {
	if f.TenantID == nil {
		return true
	}
	if rowTenant == nil {
		return f.IncludeShared
	}
	return *rowTenant == *f.TenantID
}
