package pg

import (
	"fmt"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// tenantPredicate arma el predicado de tenant para col y agrega su
// argumento a args. Sin tenant retorna "TRUE" (vista de plataforma).
func tenantPredicate(f repository.TenantFilter, col string, args []any) (string, []any) {
	if f.TenantID == nil {
		return "TRUE", args
	}
	args = append(args, *f.TenantID)
	n := len(args)
	if f.IncludeShared {
		return fmt.Sprintf("(%s = $%d OR %s IS NULL)", col, n, col), args
	}
	return fmt.Sprintf("%s = $%d", col, n), args
}
