package auth

import (
	"errors"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/bodega-pos/bodega/internal/platform/httpx"
)

var (
	// ErrInvalidSecret indicates the supplied admin secret does not match.
	ErrInvalidSecret = errors.New("auth: invalid admin secret")
	// ErrSecretTooShort indicates a replacement secret below the minimum length.
	ErrSecretTooShort = errors.New("auth: secret must be at least 6 characters")
)

const minSecretLen = 6

// SecretHeader carries the admin secret on gated requests.
const SecretHeader = "X-Admin-Secret"

// Gate holds the bcrypt hash of the single shared admin secret. It gates
// navigation into the back office only; it plays no role in data integrity.
type Gate struct {
	mu   sync.RWMutex
	hash string
}

// NewGate builds a gate from an already-hashed secret.
func NewGate(hash string) *Gate {
	return &Gate{hash: hash}
}

// NewGateFromSecret hashes the initial plaintext secret from configuration.
func NewGateFromSecret(secret string) (*Gate, error) {
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Gate{hash: string(hash)}, nil
}

// Verify compares a plaintext secret against the stored hash.
func (g *Gate) Verify(secret string) error {
	g.mu.RLock()
	hash := g.hash
	g.mu.RUnlock()
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return ErrInvalidSecret
	}
	return nil
}

// Change replaces the secret after verifying the current one.
func (g *Gate) Change(current, next string) error {
	if err := g.Verify(current); err != nil {
		return err
	}
	if len(next) < minSecretLen {
		return ErrSecretTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.hash = string(hash)
	g.mu.Unlock()
	return nil
}

// Hash returns the stored bcrypt hash for persistence.
func (g *Gate) Hash() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hash
}

// SetHash restores a persisted hash.
func (g *Gate) SetHash(hash string) {
	if hash == "" {
		return
	}
	g.mu.Lock()
	g.hash = hash
	g.mu.Unlock()
}

// Middleware rejects requests without a valid secret header.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Verify(r.Header.Get(SecretHeader)); err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "valid admin secret required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
