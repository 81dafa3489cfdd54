package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/api/responses"
	pkgAuth "github.com/marais-jewelry/marais-backend/pkg/auth"
	"github.com/marais-jewelry/marais-backend/pkg/config"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

const (
	SessionKeyHeader   = "X-Session-Key"
	DefaultSessionName = "session_key"

	sessionCookieTTL = 30 * 24 * time.Hour
	maxSessionKeyLen = 64
)

// IdentityOptions configure how callers are recognised.
type IdentityOptions struct {
	JWT          config.JWTConfig
	CookieName   string
	SecureCookie bool
}

// Identity resolves the caller. A bearer token identifies a registered
// customer; every caller additionally carries an anonymous session key, read
// from X-Session-Key or the session cookie and minted when absent.
func Identity(opts IdentityOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = DefaultSessionName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fields := map[string]any{}

			if token, present := bearerToken(r); present {
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgAuth.ParseAccessToken(opts.JWT, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = WithUserID(ctx, claims.UserID.String())
				ctx = WithRole(ctx, string(claims.Role))
				fields["user_id"] = claims.UserID.String()
				fields["actor_role"] = string(claims.Role)
			}

			key, minted := sessionKey(r, cookieName)
			if minted {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    key,
					Path:     "/",
					MaxAge:   int(sessionCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionKeyHeader, key)
			ctx = WithSessionKey(ctx, key)
			fields["session_key"] = key

			if logg != nil {
				ctx = logg.WithFields(ctx, fields)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous callers.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:]), true
	}
	return raw, true
}

func sessionKey(r *http.Request, cookieName string) (string, bool) {
	if key := cleanSessionKey(r.Header.Get(SessionKeyHeader)); key != "" {
		return key, false
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		if key := cleanSessionKey(cookie.Value); key != "" {
			return key, false
		}
	}
	return uuid.NewString(), true
}

func cleanSessionKey(raw string) string {
	key := strings.TrimSpace(raw)
	if len(key) > maxSessionKeyLen {
		return ""
	}
	return key
}
