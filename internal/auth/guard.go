package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// CookieName is the cookie carrying the session token.
const CookieName = "authToken"

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFrom returns the identity stored by the Guard, if any.
func IdentityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// publicPaths are reachable without a session.
var publicPaths = []string{
	LoginPath,
	"/healthz",
	"/api/send-otp",
	"/api/verify-otp",
	"/api/logout",
}

func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/assets/") {
		return true
	}
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Validator checks a session token.
type Validator interface {
	Validate(token string) (*Claims, error)
}

// Guard rejects requests without a valid session cookie. Missing, forged and
// expired tokens are handled the same way: API paths get a 401 JSON body and
// everything else is redirected to the login page.
func Guard(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := authenticate(v, r)
			if !ok {
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func authenticate(v Validator, r *http.Request) (string, bool) {
	if v == nil {
		return "", false
	}
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	claims, err := v.Validate(c.Value)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

func deny(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// SessionCookie returns the cookie that stores token for SessionTTL.
func SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearedCookie returns a cookie that removes the session.
func ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
