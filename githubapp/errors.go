package githubapp

import "fmt"

// KeyError reports an App signing key that could not be parsed.
type KeyError struct {
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("parsing app private key: %v", e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// AuthError reports a request that GitHub's app API rejected, or a token
// response it could not honor. The body is truncated and never contains
// the bearer material this package sent.
type AuthError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github app api: %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}
