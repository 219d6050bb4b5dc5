package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/api/responses"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
)

const storeIDHeader = "X-Store-Id"

// StoreContext resolves the calling storefront from the X-Store-Id header.
// Every tenant-scoped route runs behind it.
func StoreContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(storeIDHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
				return
			}
			storeID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id"))
				return
			}

			ctx := WithStoreID(r.Context(), storeID.String())
			if logg != nil {
				ctx = logg.WithStoreID(ctx, storeID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
