package httpx

import (
	"context"
	"net/http"

	"github.com/skyfleethq/identity/pkg/slogx"
)

// PermissionChecker answers "may this user perform action on resource".
// The RBAC evaluator satisfies this.
type PermissionChecker interface {
	Can(ctx context.Context, userID, resource, action string) (bool, error)
}

// RequirePermission gates the route on a resolved RBAC permission for the
// authenticated user. Must run after AuthnMiddleware.
func RequirePermission(checker PermissionChecker, resource, action string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			userID := UserIDFromContext(ctx)
			if userID == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			allowed, err := checker.Can(ctx, userID, resource, action)
			if err != nil {
				log.Error("permission check failed", "user_id", userID, "resource", resource, "action", action, "err", err)
				WriteError(w, http.StatusInternalServerError, "server_error", "")
				return
			}
			if !allowed {
				writeForbidden(w, resource, action)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter, resource, action string) {
	WriteError(w, http.StatusForbidden, "forbidden", "requires "+action+" on "+resource)
}
