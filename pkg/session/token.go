package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token holds the bearer JWT issued by the collector for a session. It is
// safe for concurrent use.
type Token struct {
	mu        sync.RWMutex
	value     string
	expiresAt time.Time
}

// Set stores a new JWT and decodes its expiry. The signature is not
// verified; only the collector can do that.
func (t *Token) Set(value string) {
	expiresAt := expiry(value)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
	t.expiresAt = expiresAt
}

func (t *Token) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Expired reports whether the token carries an exp claim that is before now.
// Tokens without exp never expire locally.
func (t *Token) Expired(now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.expiresAt.IsZero() && t.expiresAt.Before(now)
}

func expiry(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(value, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
