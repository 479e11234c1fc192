package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rmoralesc/movilpos-backend/api/responses"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
)

const cashierIDHeader = "X-Cashier-Id"

type cashierCtxKey struct{}

// RequireCashier resolves the operating cashier from the till's header and
// rejects writes without one. Authentication proper lives in the surrounding
// CRUD application; this engine only needs the identity to stamp records.
func RequireCashier(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(cashierIDHeader)
			cashierID, err := uuid.Parse(raw)
			if raw == "" || err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "a valid X-Cashier-Id header is required"))
				return
			}

			ctx := context.WithValue(r.Context(), cashierCtxKey{}, cashierID)
			if logg != nil {
				ctx = logg.WithCashierID(ctx, cashierID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CashierID returns the cashier bound to the request context.
func CashierID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(cashierCtxKey{}).(uuid.UUID)
	return id, ok
}
