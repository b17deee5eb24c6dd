package graphql

import "fmt"

// TransportError reports a non-2xx status from the GraphQL endpoint.
// No retry is attempted; retry policy belongs to the host framework.
type TransportError struct {
	StatusCode int
	Body       string // truncated, for diagnostics
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphql endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// ProtocolError reports a 2xx response whose body is not a GraphQL envelope,
// which usually indicates an upstream API contract change.
type ProtocolError struct {
	Body string // truncated
	Err  error  // decode error, if any
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed graphql response: %v", e.Err)
	}
	return fmt.Sprintf("malformed graphql response (no data or errors field): %s", e.Body)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
