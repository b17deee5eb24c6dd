package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/gqlmod/ghgraphql/github"
)

var whoamiPrompt bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the configured credential against the GitHub API",
	RunE:  runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiPrompt, "prompt", false, "prompt for a personal access token instead of using configured credentials")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if whoamiPrompt {
		settings = github.Settings{}
	}

	p, err := github.New(settings)
	if err != nil {
		// Fall back to an interactive prompt when nothing is configured
		// and we have a terminal to ask on.
		if !errors.Is(err, github.ErrNoCredentials) || !term.IsTerminal(int(os.Stdin.Fd())) {
			return err
		}
		token, promptErr := promptForToken("Token")
		if promptErr != nil {
			return promptErr
		}
		if token == "" {
			return fmt.Errorf("no token provided")
		}
		p, err = github.New(github.Settings{PersonalToken: token})
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	client := oauth2.NewClient(ctx, p.TokenSource(ctx))
	client.Timeout = 10 * time.Second

	login, err := fetchLogin(ctx, client)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as: %s\n", login)
	return nil
}

// fetchLogin validates the credential by calling the /user endpoint and
// returns the authenticated login.
func fetchLogin(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.github.com/user", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "ghgql")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("validating credential: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user struct {
			Login string `json:"login"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return "", fmt.Errorf("parsing user response: %w", err)
		}
		return user.Login, nil
	case http.StatusUnauthorized:
		return "", fmt.Errorf("invalid credential (401 Unauthorized)")
	case http.StatusForbidden:
		return "", fmt.Errorf("credential check failed (403 Forbidden) - the credential may lack permissions or you may be rate limited")
	default:
		return "", fmt.Errorf("unexpected status validating credential: %d", resp.StatusCode)
	}
}
