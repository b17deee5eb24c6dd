package github

import (
	"context"

	"github.com/gqlmod/ghgraphql/graphql"
	"github.com/gqlmod/ghgraphql/githubapp"
)

// Credential is the authentication scheme resolved from Settings. It is
// fixed for a provider's lifetime; constructing a new provider is the only
// way to pick up changed configuration.
//
// The two implementations are PersonalToken and AppCredential.
type Credential interface {
	credential()
}

// PersonalToken authenticates with a static personal access token, sent
// with the "token" authorization scheme.
type PersonalToken string

func (PersonalToken) credential() {}

// AppCredential authenticates as a GitHub App installation: a signed app
// JWT is exchanged for a short-lived installation token, sent with the
// "Bearer" scheme.
type AppCredential struct {
	AppID          string
	PrivateKey     []byte // PEM-encoded RSA key
	InstallationID string
}

func (AppCredential) credential() {}

// tokenProvider yields the current bearer material for one credential kind.
// Implementations must be safe for concurrent use.
type tokenProvider interface {
	authorization(ctx context.Context) (graphql.Authorization, error)
}

// staticToken serves a personal access token. It is the degenerate case of
// the installation-token flow: never expires, no network, no cache.
type staticToken string

func (t staticToken) authorization(context.Context) (graphql.Authorization, error) {
	return graphql.Authorization{Scheme: "token", Token: string(t)}, nil
}

// appTokens serves cached installation tokens for one installation.
type appTokens struct {
	cache          *githubapp.TokenCache
	installationID string
}

func (t *appTokens) authorization(ctx context.Context) (graphql.Authorization, error) {
	tok, err := t.cache.Token(ctx, t.installationID)
	if err != nil {
		return graphql.Authorization{}, err
	}
	return graphql.Authorization{Scheme: "Bearer", Token: tok.Token}, nil
}
