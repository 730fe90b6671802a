// Package repository define las entidades de dominio y los contratos de
// almacenamiento del core de seguridad.
//
// Las implementaciones viven en internal/store/pg (PostgreSQL) e
// internal/store/memory (tests y desarrollo local).
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Toda lectura de una entidad tenant-scoped recibe un TenantFilter
//     explícito; el filtro lo arma internal/tenancy a partir del tenant
//     ligado al request, nunca el caller a mano.
//   - Las entidades con invariantes de tenant se construyen con NewRole,
//     NewTenantUser o NewPlatformUser.
//   - Errores de dominio están en errors.go.
package repository
