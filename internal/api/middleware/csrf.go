package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const (
	csrfTokenLength = 32
	csrfCookieName  = "csrf_token"
	csrfHeaderName  = "X-CSRF-Token"
	csrfTokenExpiry = 24 * time.Hour
)

type csrfToken struct {
	value     string
	expiresAt time.Time
}

// CSRFStore keeps one token per browser session in memory.
type CSRFStore struct {
	tokens map[string]csrfToken
	mu     sync.Mutex
	now    func() time.Time
}

func NewCSRFStore() *CSRFStore {
	return &CSRFStore{
		tokens: make(map[string]csrfToken),
		now:    time.Now,
	}
}

// Run purges expired tokens every interval until stop is closed.
func (s *CSRFStore) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *CSRFStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sessionID, token := range s.tokens {
		if now.After(token.expiresAt) {
			delete(s.tokens, sessionID)
		}
	}
}

// GetOrCreate returns the session's token, minting one if needed.
func (s *CSRFStore) GetOrCreate(sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if token, ok := s.tokens[sessionID]; ok && now.Before(token.expiresAt) {
		return token.value, nil
	}

	buf := make([]byte, csrfTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	s.tokens[sessionID] = csrfToken{value: value, expiresAt: now.Add(csrfTokenExpiry)}
	return value, nil
}

// Validate checks the provided token in constant time.
func (s *CSRFStore) Validate(sessionID, provided string) bool {
	s.mu.Lock()
	token, ok := s.tokens[sessionID]
	s.mu.Unlock()

	if !ok || s.now().After(token.expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token.value), []byte(provided)) == 1
}

// CSRF protects cookie-authenticated requests. Requests that carry their
// token in a header are not exposed to CSRF and pass straight through.
func CSRF(store *CSRFStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				ensureCSRFCookie(w, r, store)
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "" || r.Header.Get("X-Auth-Token") != "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := sessionKey(r)
			if sessionID == "" {
				// No cookie either; Auth will reject the request
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(csrfHeaderName)
			if provided == "" {
				writeError(w, http.StatusForbidden, "CSRF token missing")
				return
			}
			if !store.Validate(sessionID, provided) {
				writeError(w, http.StatusForbidden, "Invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, store *CSRFStore) {
	sessionID := sessionKey(r)
	if sessionID == "" {
		return
	}
	// A cookie left over from an earlier session or a restart is replaced
	if cookie, err := r.Cookie(csrfCookieName); err == nil && store.Validate(sessionID, cookie.Value) {
		return
	}

	token, err := store.GetOrCreate(sessionID)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false, // read by JavaScript and echoed in the header
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfTokenExpiry.Seconds()),
	})
}

// ClearCSRFCookie expires the token cookie, typically on logout.
func ClearCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    "",
		Path:     "/",
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// sessionKey derives a stable identifier from the session cookie.
func sessionKey(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cookie.Value))
	return hex.EncodeToString(sum[:16])
}
