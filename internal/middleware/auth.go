package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie is set by the login handler once the password matched.
const AuthCookie = "authenticated"

// Authenticator checks the login password and issues the session token
// stored in AuthCookie. The token is an HMAC of the password under a key
// generated at startup, so sessions end when the process restarts.
type Authenticator struct {
	password string
	token    string
}

// NewAuthenticator creates an Authenticator for password. An empty password
// disables authentication.
func NewAuthenticator(password string) *Authenticator {
	a := &Authenticator{password: password}
	if password == "" {
		return a
	}
	key := make([]byte, 32)
	// rand.Read only fails when the OS entropy source is unavailable.
	if _, err := rand.Read(key); err != nil {
		panic("middleware: cannot generate session key: " + err.Error())
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(password))
	a.token = hex.EncodeToString(mac.Sum(nil))
	return a
}

// Enabled reports whether a password is configured.
func (a *Authenticator) Enabled() bool {
	return a.password != ""
}

// CheckPassword compares password in constant time.
func (a *Authenticator) CheckPassword(password string) bool {
	return a.Enabled() && subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}

// Token returns the cookie value of an authenticated session.
func (a *Authenticator) Token() string {
	return a.token
}

// Valid reports whether token belongs to an authenticated session.
func (a *Authenticator) Valid(token string) bool {
	return a.Enabled() && subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}

// AuthMiddleware requires a valid auth cookie on every request except the
// login page and static assets. A disabled Authenticator lets everything through.
func AuthMiddleware(auth *Authenticator, next http.Handler) http.Handler {
	if !auth.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			r.URL.Path == "/api/health" ||
			strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || !auth.Valid(cookie.Value) {
			// API and AJAX callers get 401, browsers are redirected.
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
