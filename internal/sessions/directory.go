// Package sessions maps short-lived opaque tokens to tenant ids.
package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"spendlog/internal/cache"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 10000
)

var ErrUnknownSession = errors.New("unknown or expired session")

// Directory issues and resolves session tokens. Tokens are random UUIDs and
// expire DefaultTTL after creation unless configured otherwise.
type Directory struct {
	tokens *cache.LRUCache[string, int64]
}

func NewDirectory(ttl time.Duration, maxEntries int) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Directory{tokens: cache.NewLRUCache[string, int64](maxEntries, ttl)}
}

// Cache exposes the token store so a cache.Manager can sweep it.
func (d *Directory) Cache() *cache.LRUCache[string, int64] { return d.tokens }

// CreateSession issues a new token for tenantID.
func (d *Directory) CreateSession(tenantID int64) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	token := id.String()
	d.tokens.Set(token, tenantID)
	return token, nil
}

// ResolveSession returns the tenant for a live token.
func (d *Directory) ResolveSession(token string) (int64, bool) {
	if _, err := uuid.Parse(token); err != nil {
		return 0, false
	}
	return d.tokens.Get(token)
}

// Revoke invalidates a token immediately.
func (d *Directory) Revoke(token string) {
	d.tokens.Delete(token)
}
