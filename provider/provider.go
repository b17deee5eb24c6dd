// Package provider defines the host-facing interfaces and registry for
// GraphQL execution providers.
//
// A host query-execution framework resolves which named operation to run
// and with what variables, then delegates network execution and
// authentication to a Provider looked up by name. Providers are registered
// via Register with a factory; instances are constructed lazily on first
// Get and reused afterwards.
package provider

import (
	"context"

	"github.com/gqlmod/ghgraphql/graphql"
)

// Provider executes pre-declared GraphQL operations. Execute blocks the
// calling goroutine for the duration of the exchange.
type Provider interface {
	// Name returns the provider's registration identifier.
	Name() string

	// Execute runs one operation and returns the decoded envelope.
	// GraphQL-level errors inside a well-formed envelope are returned as
	// data, not as an error.
	Execute(ctx context.Context, op graphql.Operation) (*graphql.Response, error)
}

// AsyncProvider is implemented by providers that additionally offer
// non-blocking execution. ExecuteAsync delivers exactly one Result on the
// returned channel and closes it.
type AsyncProvider interface {
	Provider

	ExecuteAsync(ctx context.Context, op graphql.Operation) <-chan graphql.Result
}

// Factory constructs a provider instance. It is invoked at most once per
// registered name, on the first successful Get.
type Factory func() (Provider, error)
