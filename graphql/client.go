package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultEndpoint is GitHub's GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// maxErrorBody bounds how much of an upstream body is kept in errors.
const maxErrorBody = 1024

// Client dispatches GraphQL operations over HTTP. The zero value is usable
// and posts to DefaultEndpoint with http.DefaultClient.
//
// Client holds no credential state: the Authorization for each call is
// supplied by the caller, captured once per call. Timeout policy, if any,
// belongs to the configured HTTPClient.
type Client struct {
	// Endpoint overrides the GraphQL endpoint URL. Defaults to
	// DefaultEndpoint.
	Endpoint string

	// HTTPClient overrides the HTTP client. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// UserAgent is sent as the User-Agent header when non-empty.
	UserAgent string
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Do executes one operation and blocks until the envelope is decoded or the
// exchange fails. A response carrying GraphQL-level errors is returned with
// a nil error; see Response.
func (c *Client) Do(ctx context.Context, auth Authorization, op Operation) (*Response, error) {
	payload, err := json.Marshal(requestBody{
		Query:         op.Document,
		OperationName: op.Name,
		Variables:     op.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth.Scheme+" "+auth.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	slog.Debug("dispatching graphql operation", "operation", op.Name, "endpoint", c.endpoint())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting graphql request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading graphql response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ProtocolError{Body: truncate(body), Err: err}
	}
	if envelope.Data == nil && len(envelope.Errors) == 0 {
		return nil, &ProtocolError{Body: truncate(body)}
	}
	return &envelope, nil
}

// DoAsync executes one operation without blocking the caller. Exactly one
// Result is delivered on the returned channel, which is then closed. The
// channel is buffered, so the result is delivered even if nobody is
// receiving yet.
func (c *Client) DoAsync(ctx context.Context, auth Authorization, op Operation) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.Do(ctx, auth, op)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
