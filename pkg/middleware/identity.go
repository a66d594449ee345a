package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/httpapi"
	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

const (
	SubjectIDHeader      = "X-Subject-Id"
	SubjectRoleHeader    = "X-Subject-Role"
	OrganizationIDHeader = "X-Organization-Id"
)

// WithIdentity reads the caller triple resolved by the upstream gateway.
// Authentication happens there; this service only requires the headers to be
// present and well-formed.
func WithIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjectID, err := uuid.Parse(r.Header.Get(SubjectIDHeader))
			if err != nil {
				unauthenticated(w)
				return
			}
			organizationID, err := uuid.Parse(r.Header.Get(OrganizationIDHeader))
			if err != nil {
				unauthenticated(w)
				return
			}

			identity := types.Identity{
				SubjectID:      subjectID,
				Role:           types.RoleFromString(r.Header.Get(SubjectRoleHeader)),
				OrganizationID: organizationID,
			}
			next.ServeHTTP(w, r.WithContext(composables.WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthenticated(w http.ResponseWriter) {
	_ = httpapi.WriteError(w, http.StatusUnauthorized,
		"SCHEDULING_UNAUTHENTICATED", "missing or malformed caller identity", nil)
}
