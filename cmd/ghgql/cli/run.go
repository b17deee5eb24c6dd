package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gqlmod/ghgraphql/github"
	"github.com/gqlmod/ghgraphql/graphql"
)

var (
	runOperations []string
	runVars       []string
)

var runCmd = &cobra.Command{
	Use:   "run <document.gql>",
	Short: "Execute named operations from a GraphQL document",
	Long: `Execute one or more named operations from a GraphQL document.

With no --operation flag the document's single anonymous operation is run.
Repeating --operation runs each named operation concurrently against the
same provider instance, sharing its token cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runOperations, "operation", "o", nil, "operation name to execute (repeatable)")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "operation variable as key=value (repeatable; values parsed as JSON when possible)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	document, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	vars, err := parseVars(runVars)
	if err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	p, err := github.New(settings)
	if err != nil {
		return err
	}

	names := runOperations
	if len(names) == 0 {
		names = []string{""}
	}

	results := make([]*graphql.Response, len(names))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, name := range names {
		g.Go(func() error {
			resp, err := p.Execute(ctx, graphql.Operation{
				Name:      name,
				Document:  string(document),
				Variables: vars,
			})
			if err != nil {
				if name != "" {
					return fmt.Errorf("operation %s: %w", name, err)
				}
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, resp := range results {
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	}
	return nil
}

// parseVars turns key=value flags into operation variables. Values that
// parse as JSON are passed through typed (numbers, booleans, objects);
// anything else is a string.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: want key=value", pair)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			vars[key] = parsed
		} else {
			vars[key] = value
		}
	}
	return vars, nil
}
