package payments

import (
	"net/http"
	"time"

	"github.com/angelmondragon/gymhub-backend/pkg/config"
)

const defaultCookieName = "gymhub_session"

// SessionCookie carries the attributes of the cookie minted for new members.
type SessionCookie struct {
	Name     string
	Domain   string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// NewSessionCookie hardens the cookie in production: Secure and SameSite
// Strict. Elsewhere it stays usable over plain http with SameSite Lax.
func NewSessionCookie(app config.AppConfig, cfg config.SessionConfig) SessionCookie {
	name := cfg.CookieName
	if name == "" {
		name = defaultCookieName
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cookie := SessionCookie{
		Name:     name,
		Domain:   cfg.CookieDomain,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	if app.IsProd() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	return cookie
}

func (c SessionCookie) Write(w http.ResponseWriter, token string, expiresAt time.Time) {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	if !expiresAt.IsZero() {
		cookie.Expires = expiresAt.UTC()
	}
	http.SetCookie(w, cookie)
}

// Clear expires the cookie in the browser.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}
