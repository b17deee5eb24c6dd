package githubapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestApp returns an App pointed at the given base URL.
func newTestApp(t *testing.T, baseURL string, opts ...Option) *App {
	t.Helper()
	_, pemBytes := generateKey(t)
	opts = append([]Option{WithBaseURL(baseURL)}, opts...)
	app, err := NewApp("4242", pemBytes, opts...)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app
}

func TestCreateInstallationToken(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/app/installations/77/access_tokens" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("Authorization = %q, want Bearer JWT", auth)
		}
		if parts := strings.Split(strings.TrimPrefix(auth, "Bearer "), "."); len(parts) != 3 {
			t.Errorf("bearer value is not a JWT: %q", auth)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_abc", "expires_at": %q}`, expiresAt.Format(time.RFC3339))
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	tok, err := app.CreateInstallationToken(context.Background(), "77")
	if err != nil {
		t.Fatalf("CreateInstallationToken() error = %v", err)
	}
	if tok.Token != "ghs_abc" {
		t.Errorf("Token = %q, want %q", tok.Token, "ghs_abc")
	}
	if !tok.ExpiresAt.Equal(expiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", tok.ExpiresAt, expiresAt)
	}
}

func TestCreateInstallationToken_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	_, err := app.CreateInstallationToken(context.Background(), "999")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", authErr.StatusCode)
	}
	if !strings.Contains(authErr.Body, "Not Found") {
		t.Errorf("Body = %q, want upstream body preserved", authErr.Body)
	}
}

func TestCreateInstallationToken_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"expires_at": "2026-03-01T12:00:00Z"}`},
		{"missing expires_at", `{"token": "ghs_abc"}`},
		{"not json", `<html></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			app := newTestApp(t, srv.URL)
			_, err := app.CreateInstallationToken(context.Background(), "77")
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %v, want *AuthError", err)
			}
		})
	}
}

func TestInstallations_Pagination(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`[{"id": 3, "account": {"login": "carol"}}]`))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/app/installations?page=2>; rel="next", <%s/app/installations?page=2>; rel="last"`, srv.URL, srv.URL))
		w.Write([]byte(`[{"id": 1, "account": {"login": "alice"}}, {"id": 2, "account": {"login": "bob"}}]`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	installs, err := app.Installations(context.Background())
	if err != nil {
		t.Fatalf("Installations() error = %v", err)
	}
	if len(installs) != 3 {
		t.Fatalf("got %d installations, want 3", len(installs))
	}
	if installs[2].ID != 3 || installs[2].Account.Login != "carol" {
		t.Errorf("installs[2] = %+v", installs[2])
	}
}

func TestGetRepoInstallation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/hello/installation" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 99, "account": {"login": "octo"}}`))
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	inst, err := app.GetRepoInstallation(context.Background(), "octo", "hello")
	if err != nil {
		t.Fatalf("GetRepoInstallation() error = %v", err)
	}
	if inst.ID != 99 {
		t.Errorf("ID = %d, want 99", inst.ID)
	}
}

func TestTokenForRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/installation", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 99}`))
	})
	mux.HandleFunc("/app/installations/99/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_repo", "expires_at": %q}`, time.Now().Add(time.Hour).Format(time.RFC3339))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	tok, err := app.TokenForRepo(context.Background(), "octo/hello")
	if err != nil {
		t.Fatalf("TokenForRepo() error = %v", err)
	}
	if tok.Token != "ghs_repo" {
		t.Errorf("Token = %q, want %q", tok.Token, "ghs_repo")
	}

	if _, err := app.TokenForRepo(context.Background(), "no-slash"); err == nil {
		t.Error("TokenForRepo() succeeded with malformed repo name")
	}
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"empty", "", ""},
		{
			"next and last",
			`<https://api.github.com/app/installations?page=2>; rel="next", <https://api.github.com/app/installations?page=5>; rel="last"`,
			"https://api.github.com/app/installations?page=2",
		},
		{
			"only prev",
			`<https://api.github.com/app/installations?page=1>; rel="prev"`,
			"",
		},
		{"no params", "<https://example.com>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPageURL(tt.link); got != tt.want {
				t.Errorf("nextPageURL(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}
