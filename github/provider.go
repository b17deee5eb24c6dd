package github

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/gqlmod/ghgraphql/githubapp"
	"github.com/gqlmod/ghgraphql/graphql"
	"github.com/gqlmod/ghgraphql/provider"
)

// Registration identifiers exposed to the host registry.
const (
	ProviderName      = "github"
	AsyncProviderName = "github-async"
)

const userAgent = "ghgraphql"

// Provider executes GraphQL operations against GitHub, attaching bearer
// material from the credential resolved at construction.
type Provider struct {
	cred   Credential
	tokens tokenProvider
	client *graphql.Client
}

// Verify interface compliance at compile time.
var (
	_ provider.Provider      = (*Provider)(nil)
	_ provider.AsyncProvider = (*AsyncProvider)(nil)
)

func init() {
	provider.Register(ProviderName, func() (provider.Provider, error) {
		return New(SettingsFromEnv())
	})
	provider.Register(AsyncProviderName, func() (provider.Provider, error) {
		p, err := New(SettingsFromEnv())
		if err != nil {
			return nil, err
		}
		return &AsyncProvider{Provider: p}, nil
	})
}

type options struct {
	httpClient    *http.Client
	restBaseURL   string
	endpoint      string
	refreshMargin time.Duration
}

// Option configures a Provider.
type Option func(*options)

// WithHTTPClient sets the HTTP client for both the token exchange and the
// GraphQL calls. The client owns timeout policy.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRESTBaseURL overrides the REST base used for token issuance. Used in
// tests.
func WithRESTBaseURL(url string) Option {
	return func(o *options) { o.restBaseURL = url }
}

// WithGraphQLEndpoint overrides the GraphQL endpoint. Used in tests.
func WithGraphQLEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// WithRefreshMargin overrides how long before expiry installation tokens
// are refreshed.
func WithRefreshMargin(d time.Duration) Option {
	return func(o *options) { o.refreshMargin = d }
}

// New resolves the credential from settings and returns a provider bound to
// it for its lifetime.
func New(settings Settings, opts ...Option) (*Provider, error) {
	cred, err := settings.Resolve()
	if err != nil {
		return nil, err
	}

	o := options{
		restBaseURL:   githubapp.DefaultBaseURL,
		refreshMargin: githubapp.DefaultRefreshMargin,
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Provider{
		cred: cred,
		client: &graphql.Client{
			Endpoint:   o.endpoint,
			HTTPClient: o.httpClient,
			UserAgent:  userAgent,
		},
	}

	switch c := cred.(type) {
	case PersonalToken:
		p.tokens = staticToken(c)
	case AppCredential:
		app, err := githubapp.NewApp(c.AppID, c.PrivateKey,
			githubapp.WithBaseURL(o.restBaseURL),
			githubapp.WithHTTPClient(o.httpClient),
			githubapp.WithUserAgent(userAgent),
		)
		if err != nil {
			return nil, err
		}
		cache := githubapp.NewTokenCache(app, githubapp.WithRefreshMargin(o.refreshMargin))
		p.tokens = &appTokens{cache: cache, installationID: c.InstallationID}
	}
	return p, nil
}

// Name returns the provider's registration identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Credential returns the credential resolved at construction.
func (p *Provider) Credential() Credential {
	return p.cred
}

// Execute runs one operation, blocking until the envelope is decoded or the
// exchange fails. The wall clock for expiry checks is captured once per
// call inside the token layer.
func (p *Provider) Execute(ctx context.Context, op graphql.Operation) (*graphql.Response, error) {
	auth, err := p.tokens.authorization(ctx)
	if err != nil {
		return nil, err
	}
	return p.client.Do(ctx, auth, op)
}

// TokenSource exposes the provider's bearer material as an
// oauth2.TokenSource for oauth2-aware HTTP clients (e.g. REST calls that
// should share the same credential and refresh logic).
func (p *Provider) TokenSource(ctx context.Context) oauth2.TokenSource {
	switch t := p.tokens.(type) {
	case staticToken:
		return oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: string(t),
			TokenType:   "token",
		})
	case *appTokens:
		return t.cache.TokenSource(ctx, t.installationID)
	}
	return nil
}

// AsyncProvider wraps a Provider with channel-based result delivery. It
// shares the wrapped provider's credential, token cache, and dispatcher;
// concurrent calls through both variants still coalesce token refreshes.
type AsyncProvider struct {
	*Provider
}

// Name returns the async provider's registration identifier.
func (p *AsyncProvider) Name() string {
	return AsyncProviderName
}

// ExecuteAsync runs one operation without blocking the caller. Exactly one
// result is delivered on the returned channel, which is then closed.
// Cancelling ctx abandons this call's wait; an in-flight token refresh
// shared with other callers is not aborted.
func (p *AsyncProvider) ExecuteAsync(ctx context.Context, op graphql.Operation) <-chan graphql.Result {
	ch := make(chan graphql.Result, 1)
	go func() {
		defer close(ch)
		resp, err := p.Execute(ctx, op)
		ch <- graphql.Result{Response: resp, Err: err}
	}()
	return ch
}
