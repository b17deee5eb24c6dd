package github

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credential resolution failures. All are fatal: the caller must fix the
// configuration, not retry.
var (
	// ErrNoCredentials is returned when neither a personal token nor app
	// credentials are configured.
	ErrNoCredentials = errors.New("no github credentials configured")
	// ErrAmbiguousCredentials is returned when both a personal token and
	// app credentials are configured.
	ErrAmbiguousCredentials = errors.New("both personal token and app credentials configured")
	// ErrIncompleteAppCredentials is returned when only part of the app
	// credential triple is configured.
	ErrIncompleteAppCredentials = errors.New("app credentials are incomplete")
)

// Settings is the configuration surface read by the credential resolver.
// Exactly one of PersonalToken or the app triple {AppID, AppPrivateKey,
// InstallationID} must be fully populated.
type Settings struct {
	// PersonalToken is a GitHub personal access token.
	PersonalToken string `yaml:"personal_token"`

	// AppID is the GitHub App id used as the JWT issuer.
	AppID string `yaml:"app_id"`

	// AppPrivateKey is the App's RSA signing key: either the PEM content
	// itself (starts with "-----BEGIN") or a path to a PEM file.
	AppPrivateKey string `yaml:"app_private_key"`

	// InstallationID selects which installation of the App to act as.
	InstallationID string `yaml:"installation_id"`
}

// SettingsFromEnv reads settings from the environment:
//
//	GITHUB_TOKEN or GH_TOKEN          -> PersonalToken
//	GITHUB_APP_ID                     -> AppID
//	GITHUB_APP_PRIVATE_KEY            -> AppPrivateKey (PEM content)
//	GITHUB_APP_PRIVATE_KEY_FILE       -> AppPrivateKey (path)
//	GITHUB_APP_INSTALLATION_ID        -> InstallationID
func SettingsFromEnv() Settings {
	key := os.Getenv("GITHUB_APP_PRIVATE_KEY")
	if key == "" {
		key = os.Getenv("GITHUB_APP_PRIVATE_KEY_FILE")
	}
	return Settings{
		PersonalToken:  firstEnv("GITHUB_TOKEN", "GH_TOKEN"),
		AppID:          os.Getenv("GITHUB_APP_ID"),
		AppPrivateKey:  key,
		InstallationID: os.Getenv("GITHUB_APP_INSTALLATION_ID"),
	}
}

// LoadSettings parses a YAML settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return s, nil
}

// Resolve decides which credential scheme the settings select. Presence of
// the app triple selects AppCredential; presence of a bare token selects
// PersonalToken; both or neither is an error wrapping one of the sentinels
// above.
func (s Settings) Resolve() (Credential, error) {
	hasToken := s.PersonalToken != ""
	hasApp := s.AppID != "" || s.AppPrivateKey != "" || s.InstallationID != ""

	switch {
	case hasToken && hasApp:
		return nil, fmt.Errorf("resolving credentials: %w", ErrAmbiguousCredentials)
	case hasToken:
		return PersonalToken(s.PersonalToken), nil
	case !hasApp:
		return nil, fmt.Errorf("resolving credentials: %w", ErrNoCredentials)
	}

	if s.AppID == "" || s.AppPrivateKey == "" || s.InstallationID == "" {
		return nil, fmt.Errorf("resolving credentials: %w (need app_id, app_private_key, installation_id)", ErrIncompleteAppCredentials)
	}

	pem, err := s.privateKeyPEM()
	if err != nil {
		return nil, err
	}
	return AppCredential{
		AppID:          s.AppID,
		PrivateKey:     pem,
		InstallationID: s.InstallationID,
	}, nil
}

// privateKeyPEM returns the key material, reading it from disk when
// AppPrivateKey is a path rather than inline PEM.
func (s Settings) privateKeyPEM() ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(s.AppPrivateKey), "-----BEGIN") {
		return []byte(s.AppPrivateKey), nil
	}
	data, err := os.ReadFile(s.AppPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("reading app private key: %w", err)
	}
	return data, nil
}

// firstEnv returns the value of the first non-empty environment variable.
func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}
