// Package graphql defines the operation and envelope types for executing
// pre-declared GraphQL operations, plus the HTTP dispatcher that runs them.
//
// This is deliberately not a GraphQL client library: documents are opaque
// text supplied by the host framework, and responses are decoded only to the
// top-level {data, errors} envelope.
package graphql

import "encoding/json"

// Operation is a single named operation to execute. The host framework owns
// parsing, validation, and variable binding; this package only substitutes
// the pieces into the request body.
type Operation struct {
	// Name selects which operation to run when Document declares several.
	// May be empty for single-operation documents.
	Name string

	// Document is the full GraphQL document text.
	Document string

	// Variables holds the values bound to the operation's variable
	// definitions.
	Variables map[string]any
}

// Response is the top-level GraphQL envelope. Data and Errors may both be
// present (partial success). A populated Errors slice is not a failure of
// the dispatch itself; it is returned to the caller as data.
type Response struct {
	Data   json.RawMessage  `json:"data,omitempty"`
	Errors []*ResponseError `json:"errors,omitempty"`
}

// ResponseError is a single GraphQL-level error from the envelope.
type ResponseError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *ResponseError) Error() string {
	return e.Message
}

// Authorization is the bearer material attached to a request.
// Scheme is "token" for personal access tokens and "Bearer" for
// installation tokens.
type Authorization struct {
	Scheme string
	Token  string
}

// Result pairs a response with its error for channel delivery from DoAsync.
type Result struct {
	Response *Response
	Err      error
}
