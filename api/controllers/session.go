package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	paymentsctl "github.com/angelmondragon/gymhub-backend/api/controllers/payments"
	"github.com/angelmondragon/gymhub-backend/api/middleware"
	"github.com/angelmondragon/gymhub-backend/api/responses"
	"github.com/angelmondragon/gymhub-backend/internal/accounts"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

type sessionRevoker interface {
	Revoke(ctx context.Context, accessID string) error
}

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuthLogout revokes the session behind the presented token and clears the
// session cookie.
func AuthLogout(manager sessionRevoker, cookie paymentsctl.SessionCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "session manager unavailable"))
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeUnauthorized, "missing session id"))
			return
		}

		if err := manager.Revoke(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeDependency, err, "revoke session"))
			return
		}

		cookie.Clear(w)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Me returns the authenticated account.
func Me(svc accountFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "account service unavailable"))
			return
		}

		id, err := uuid.Parse(middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeUnauthorized, err, "invalid account"))
			return
		}

		account, err := svc.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if account == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeNotFound, "account not found"))
			return
		}
		responses.WriteSuccess(w, accounts.FromModel(account))
	}
}
