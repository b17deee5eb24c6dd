package githubapp

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultBaseURL is the GitHub REST API base.
const DefaultBaseURL = "https://api.github.com"

const (
	// jwtBackdate shifts iat into the past to absorb clock skew between
	// this process and GitHub.
	jwtBackdate = time.Minute

	// jwtLifetime keeps exp under GitHub's documented 10 minute cap for
	// app JWTs, including the backdated minute.
	jwtLifetime = 9 * time.Minute

	acceptHeader = "application/vnd.github+json"
)

// App holds a GitHub App identity: the app id and its RSA signing key.
type App struct {
	appID      string
	key        *rsa.PrivateKey
	baseURL    string
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithBaseURL overrides the REST API base URL. Used in tests.
func WithBaseURL(url string) Option {
	return func(a *App) { a.baseURL = url }
}

// WithHTTPClient overrides the HTTP client. The client's configuration owns
// timeout policy; App imposes none of its own.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// WithUserAgent sets the User-Agent header for REST calls.
func WithUserAgent(ua string) Option {
	return func(a *App) { a.userAgent = ua }
}

// WithClock overrides the wall clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewApp parses the PEM-encoded RSA private key and returns the App
// identity. A key that cannot be parsed is a *KeyError.
func NewApp(appID string, privateKey []byte, opts ...Option) (*App, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey)
	if err != nil {
		return nil, &KeyError{Err: err}
	}
	a := &App{
		appID:   appID,
		key:     key,
		baseURL: DefaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ID returns the app id used as the JWT issuer.
func (a *App) ID() string {
	return a.appID
}

func (a *App) client() *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	return http.DefaultClient
}

// JWT mints a fresh RS256 app JWT asserting the App identity at the given
// instant. Tokens are not cached here: each is cheap to mint, and using a
// fresh one per exchange keeps its exposure window minimal.
func (a *App) JWT(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    a.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-jwtBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("signing app jwt: %w", err)
	}
	return signed, nil
}
