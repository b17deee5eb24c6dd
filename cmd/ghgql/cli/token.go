package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gqlmod/ghgraphql/github"
	"github.com/gqlmod/ghgraphql/githubapp"
)

var (
	tokenInstallation string
	tokenRepo         string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the token the provider would authenticate with",
	Long: `Print the configured personal access token, or mint and print a
fresh installation access token for App credentials. Intended for debugging
and for handing a short-lived token to other tools.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenInstallation, "installation", "", "mint for this installation id instead of the configured one")
	tokenCmd.Flags().StringVar(&tokenRepo, "repo", "", "mint for the installation covering this owner/repo")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	cred, err := settings.Resolve()
	if err != nil {
		return err
	}

	switch c := cred.(type) {
	case github.PersonalToken:
		if tokenInstallation != "" || tokenRepo != "" {
			return fmt.Errorf("personal access tokens are not installation-scoped")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(c))
		return nil
	case github.AppCredential:
		app, err := githubapp.NewApp(c.AppID, c.PrivateKey)
		if err != nil {
			return err
		}
		var tok githubapp.InstallationToken
		switch {
		case tokenRepo != "":
			tok, err = app.TokenForRepo(cmd.Context(), tokenRepo)
		case tokenInstallation != "":
			tok, err = app.CreateInstallationToken(cmd.Context(), tokenInstallation)
		default:
			tok, err = app.CreateInstallationToken(cmd.Context(), c.InstallationID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", tok.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	}
	return fmt.Errorf("unsupported credential kind")
}
