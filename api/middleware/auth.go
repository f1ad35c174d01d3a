package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gymhub-backend/api/responses"
	pkgAuth "github.com/angelmondragon/gymhub-backend/pkg/auth"
	"github.com/angelmondragon/gymhub-backend/pkg/auth/session"
	"github.com/angelmondragon/gymhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

// Auth admits requests carrying a valid access token whose session has not
// been revoked. The bearer header wins over the session cookie.
func Auth(cfg config.JWTConfig, cookieName string, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := bearerOrCookie(r, cookieName)
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if sessions != nil {
				live, err := sessions.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired"))
					return
				}
			}

			principal := Principal{
				AccountID: claims.AccountID.String(),
				Role:      string(claims.Role),
				AccessID:  claims.ID,
			}
			if claims.MemberID != nil {
				principal.MemberID = *claims.MemberID
			}
			ctx = WithPrincipal(ctx, principal)
			if logg != nil {
				ctx = logg.WithFields(logg.WithAccountID(ctx, principal.AccountID), map[string]any{"role": principal.Role})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerOrCookie(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return header
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
