// Package githubapp implements GitHub App authentication: minting the
// short-lived RS256 app JWT, exchanging it for installation access tokens,
// and caching those tokens with proactive refresh.
//
// App is a small v3 REST client covering only the app and installation
// endpoints the credential flow needs: installation lookup (by id, org,
// repo, or user), installation listing with Link-header pagination, and
// installation token creation.
//
// TokenCache is the concurrency-sensitive piece. Its Token method is safe
// to call from any number of goroutines; concurrent callers racing on an
// expired token for the same installation share a single token exchange.
package githubapp
