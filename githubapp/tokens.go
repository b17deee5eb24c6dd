package githubapp

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshMargin is how long before a token's stated expiry it is
// treated as expired and refreshed.
const DefaultRefreshMargin = time.Minute

// TokenCache caches installation access tokens per installation id and
// refreshes them before expiry. It owns all cached tokens for the process
// lifetime; callers receive copies, never references into the cache.
//
// Safe for concurrent use. Token is a suspension point (it may perform a
// network exchange); concurrent calls for the same installation share a
// single exchange.
type TokenCache struct {
	app    *App
	margin time.Duration
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// cacheEntry guards the token for one installation id. Entries are never
// removed; the current token is swapped atomically so readers never see a
// half-written value.
type cacheEntry struct {
	current atomic.Pointer[InstallationToken]
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithRefreshMargin overrides DefaultRefreshMargin.
func WithRefreshMargin(d time.Duration) TokenCacheOption {
	return func(c *TokenCache) { c.margin = d }
}

// NewTokenCache returns an empty cache exchanging tokens through app.
func NewTokenCache(app *App, opts ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		app:     app,
		margin:  DefaultRefreshMargin,
		entries: make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TokenCache) entry(installationID string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[installationID]
	if !ok {
		e = &cacheEntry{}
		c.entries[installationID] = e
	}
	return e
}

func (c *TokenCache) fresh(tok *InstallationToken) bool {
	return tok != nil && tok.ExpiresAt.After(c.app.now().Add(c.margin))
}

// Token returns a valid installation token, exchanging a fresh app JWT for
// a new one when the cached token is absent or within the refresh margin of
// expiry. Under N concurrent callers racing on an expired token, exactly one
// exchange happens and all N receive its result.
//
// A caller whose ctx is cancelled while a refresh is in flight abandons its
// wait, but the exchange itself is not aborted: other waiters still need
// the result.
func (c *TokenCache) Token(ctx context.Context, installationID string) (InstallationToken, error) {
	e := c.entry(installationID)

	// Fast path: read-only check against the immutable snapshot.
	if tok := e.current.Load(); c.fresh(tok) {
		return *tok, nil
	}

	ch := c.group.DoChan(installationID, func() (any, error) {
		// Re-check after winning the flight: another caller may have
		// refreshed while this one was queued.
		if tok := e.current.Load(); c.fresh(tok) {
			return *tok, nil
		}
		tok, err := c.app.CreateInstallationToken(context.WithoutCancel(ctx), installationID)
		if err != nil {
			// Leave the entry unchanged so the next caller retries.
			return InstallationToken{}, err
		}
		e.current.Store(&tok)
		slog.Debug("installation token refreshed",
			"installation", installationID, "expires_at", tok.ExpiresAt)
		return tok, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return InstallationToken{}, res.Err
		}
		return res.Val.(InstallationToken), nil
	case <-ctx.Done():
		return InstallationToken{}, ctx.Err()
	}
}

// Invalidate drops the cached token for an installation, forcing the next
// Token call to exchange. Call after an upstream 401 on the cached token.
func (c *TokenCache) Invalidate(installationID string) {
	c.mu.Lock()
	e, ok := c.entries[installationID]
	c.mu.Unlock()
	if ok {
		e.current.Store(nil)
	}
}
