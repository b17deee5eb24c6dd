package githubapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// InstallationToken is a short-lived credential for one App installation.
// Values are immutable: the cache replaces them wholesale on refresh.
type InstallationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Installation describes one installation of the App.
type Installation struct {
	ID      int64 `json:"id"`
	Account struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	} `json:"account"`
	AppID           int64  `json:"app_id"`
	TargetType      string `json:"target_type"`
	RepositoryScope string `json:"repository_selection"`
}

// AppInfo describes a GitHub App.
type AppInfo struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// rest performs one app-authenticated API request, minting a fresh JWT for
// it, and decodes the JSON body into out when out is non-nil. The response
// headers are returned for pagination. Any status other than wantStatus is
// an *AuthError.
func (a *App) rest(ctx context.Context, method, url string, wantStatus int, out any) (http.Header, error) {
	appJWT, err := a.JWT(a.now())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", acceptHeader)
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	if resp.StatusCode != wantStatus {
		return nil, &AuthError{StatusCode: resp.StatusCode, URL: url, Body: truncateBody(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &AuthError{StatusCode: resp.StatusCode, URL: url, Body: "undecodable body: " + truncateBody(body)}
		}
	}
	return resp.Header, nil
}

// CreateInstallationToken exchanges a freshly-minted app JWT for an
// installation access token. Rejections (401/403/404) and responses missing
// the token or expiry are *AuthError. Nothing is cached here; see
// TokenCache.
func (a *App) CreateInstallationToken(ctx context.Context, installationID string) (InstallationToken, error) {
	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", a.baseURL, installationID)
	var tok InstallationToken
	if _, err := a.rest(ctx, http.MethodPost, url, http.StatusCreated, &tok); err != nil {
		return InstallationToken{}, err
	}
	if tok.Token == "" || tok.ExpiresAt.IsZero() {
		return InstallationToken{}, &AuthError{StatusCode: http.StatusCreated, URL: url, Body: "response missing token or expires_at"}
	}
	return tok, nil
}

// GetInstallation looks up an installation by id.
func (a *App) GetInstallation(ctx context.Context, installationID string) (*Installation, error) {
	return a.getInstallation(ctx, fmt.Sprintf("%s/app/installations/%s", a.baseURL, installationID))
}

// GetOrgInstallation looks up the App's installation on an organization.
func (a *App) GetOrgInstallation(ctx context.Context, org string) (*Installation, error) {
	return a.getInstallation(ctx, fmt.Sprintf("%s/orgs/%s/installation", a.baseURL, org))
}

// GetRepoInstallation looks up the App's installation on a repository.
func (a *App) GetRepoInstallation(ctx context.Context, owner, repo string) (*Installation, error) {
	return a.getInstallation(ctx, fmt.Sprintf("%s/repos/%s/%s/installation", a.baseURL, owner, repo))
}

// GetUserInstallation looks up the App's installation on a user account.
func (a *App) GetUserInstallation(ctx context.Context, user string) (*Installation, error) {
	return a.getInstallation(ctx, fmt.Sprintf("%s/users/%s/installation", a.baseURL, user))
}

func (a *App) getInstallation(ctx context.Context, url string) (*Installation, error) {
	var inst Installation
	if _, err := a.rest(ctx, http.MethodGet, url, http.StatusOK, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// GetApp looks up an app by slug.
func (a *App) GetApp(ctx context.Context, slug string) (*AppInfo, error) {
	var info AppInfo
	if _, err := a.rest(ctx, http.MethodGet, a.baseURL+"/apps/"+slug, http.StatusOK, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAuthenticatedApp looks up the App this identity belongs to.
func (a *App) GetAuthenticatedApp(ctx context.Context) (*AppInfo, error) {
	var info AppInfo
	if _, err := a.rest(ctx, http.MethodGet, a.baseURL+"/app", http.StatusOK, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Installations lists every installation of the App, following
// Link: rel="next" pagination.
func (a *App) Installations(ctx context.Context) ([]Installation, error) {
	var all []Installation
	url := a.baseURL + "/app/installations"
	for url != "" {
		var page []Installation
		headers, err := a.rest(ctx, http.MethodGet, url, http.StatusOK, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		url = nextPageURL(headers.Get("Link"))
	}
	return all, nil
}

// TokenForRepo resolves the installation covering "owner/repo" and creates
// a token for it in one call.
func (a *App) TokenForRepo(ctx context.Context, ownerRepo string) (InstallationToken, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return InstallationToken{}, fmt.Errorf("invalid repository %q: want owner/repo", ownerRepo)
	}
	inst, err := a.GetRepoInstallation(ctx, owner, repo)
	if err != nil {
		return InstallationToken{}, err
	}
	return a.CreateInstallationToken(ctx, fmt.Sprintf("%d", inst.ID))
}

// nextPageURL extracts the rel="next" target from a Link header, if any.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		url := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return url
			}
		}
	}
	return ""
}

func truncateBody(body []byte) string {
	const max = 1024
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
