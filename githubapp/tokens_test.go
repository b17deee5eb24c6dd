package githubapp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable wall clock shared between the App and the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// exchangeServer issues sequentially-numbered tokens and counts exchanges.
type exchangeServer struct {
	srv      *httptest.Server
	calls    atomic.Int64
	tokenTTL time.Duration
	clock    *fakeClock
}

func newExchangeServer(t *testing.T, clock *fakeClock, ttl time.Duration) *exchangeServer {
	t.Helper()
	es := &exchangeServer{tokenTTL: ttl, clock: clock}
	es.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := es.calls.Add(1)
		expires := es.clock.Now().Add(es.tokenTTL)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_%d", "expires_at": %q}`, n, expires.Format(time.RFC3339))
	}))
	t.Cleanup(es.srv.Close)
	return es
}

func newTestCache(t *testing.T, es *exchangeServer, clock *fakeClock, opts ...TokenCacheOption) *TokenCache {
	t.Helper()
	app := newTestApp(t, es.srv.URL, WithClock(clock.Now))
	return NewTokenCache(app, opts...)
}

func TestToken_SingleExchangeUnderContention(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, time.Hour)
	cache := newTestCache(t, es, clock)

	const n = 16
	tokens := make([]InstallationToken, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], errs[i] = cache.Token(context.Background(), "77")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, es.calls.Load(), "concurrent callers must share one exchange")
	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0].Token, tokens[i].Token, "all callers must receive the same token")
	}
}

func TestToken_CachedTokenSkipsNetwork(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, time.Hour)
	cache := newTestCache(t, es, clock)

	first, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)
	second, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.EqualValues(t, 1, es.calls.Load(), "second call must be served from cache")
}

func TestToken_RefreshWithinMargin(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, 90*time.Second)
	cache := newTestCache(t, es, clock, WithRefreshMargin(time.Minute))

	first, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "ghs_1", first.Token)

	// 50s of validity left, inside the 60s margin: treated as expired.
	clock.Advance(40 * time.Second)
	second, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)

	assert.Equal(t, "ghs_2", second.Token)
	assert.EqualValues(t, 2, es.calls.Load())
}

func TestToken_ExchangeFailureLeavesCacheEmpty(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_ok", "expires_at": %q}`, clock.Now().Add(time.Hour).Format(time.RFC3339))
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL, WithClock(clock.Now))
	cache := NewTokenCache(app)

	_, err := cache.Token(context.Background(), "77")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	// The failure was not cached: the next call retries the exchange.
	tok, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "ghs_ok", tok.Token)
	assert.EqualValues(t, 2, calls.Load())
}

func TestToken_PerInstallationEntries(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, time.Hour)
	cache := newTestCache(t, es, clock)

	a, err := cache.Token(context.Background(), "1")
	require.NoError(t, err)
	b, err := cache.Token(context.Background(), "2")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token, "installations must not share tokens")
	assert.EqualValues(t, 2, es.calls.Load())
}

func TestToken_Invalidate(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, time.Hour)
	cache := newTestCache(t, es, clock)

	_, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)

	cache.Invalidate("77")
	tok, err := cache.Token(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "ghs_2", tok.Token)
	assert.EqualValues(t, 2, es.calls.Load())
}

func TestToken_CancelledWaiterDoesNotAbortExchange(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_shared", "expires_at": %q}`, clock.Now().Add(time.Hour).Format(time.RFC3339))
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL, WithClock(clock.Now))
	cache := NewTokenCache(app)

	ctx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := cache.Token(ctx, "77")
		cancelledErr <- err
	}()

	survivor := make(chan InstallationToken, 1)
	survivorErr := make(chan error, 1)
	go func() {
		<-started
		tok, err := cache.Token(context.Background(), "77")
		survivor <- tok
		survivorErr <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-cancelledErr, context.Canceled)

	close(release)
	require.NoError(t, <-survivorErr)
	assert.Equal(t, "ghs_shared", (<-survivor).Token)
	assert.EqualValues(t, 1, calls.Load(), "the cancelled waiter must not abort or duplicate the exchange")
}

func TestTokenSource(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	es := newExchangeServer(t, clock, time.Hour)
	cache := newTestCache(t, es, clock)

	src := cache.TokenSource(context.Background(), "77")
	tok, err := src.Token()
	require.NoError(t, err)

	assert.Equal(t, "ghs_1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.True(t, tok.Expiry.After(clock.Now()))
}
