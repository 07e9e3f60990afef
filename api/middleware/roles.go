package middleware

import (
	"net/http"

	"github.com/angelmondragon/saastools-backend/api/responses"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

// RequireRole admits requests whose token role is one of allowed. It reads the
// role stored by Auth, so it must be mounted after it.
func RequireRole(logg *logger.Logger, allowed ...enums.UserRole) func(http.Handler) http.Handler {
	set := make(map[enums.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	denied := pkgerrors.New(pkgerrors.CodeForbidden, forbiddenMessage(allowed))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := enums.ParseUserRole(RoleFromContext(r.Context()))
			if _, ok := set[role]; err != nil || !ok {
				responses.WriteError(r.Context(), logg, w, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbiddenMessage(allowed []enums.UserRole) string {
	if len(allowed) == 1 && allowed[0] == enums.UserRoleAdmin {
		return "Admin access required"
	}
	return "Insufficient role"
}
