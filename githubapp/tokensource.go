package githubapp

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the cache to oauth2.TokenSource so oauth2-aware HTTP
// clients can consume the same refresh logic. The returned source yields
// Bearer tokens for the given installation, refreshing through the cache.
//
// ctx bounds every Token call made through the source.
func (c *TokenCache) TokenSource(ctx context.Context, installationID string) oauth2.TokenSource {
	return &cacheTokenSource{ctx: ctx, cache: c, installationID: installationID}
}

type cacheTokenSource struct {
	ctx            context.Context
	cache          *TokenCache
	installationID string
}

func (s *cacheTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.cache.Token(s.ctx, s.installationID)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.Token,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresAt,
	}, nil
}
