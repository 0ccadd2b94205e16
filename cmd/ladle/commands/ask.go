package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/service"
	"github.com/ladleworks/ladle/internal/tracing"
)

// NewAskCmd constructs the `ladle ask` command, which answers a single
// cooking question over the recipe index and streams the response to stdout.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a cooking question over your recipe collection",
		Long: `Ask a natural language question about your recipes.

The question is expanded into multiple search queries, matched against the
recipe index with any hard constraints you stated (ingredients to avoid,
time limits, ratings), and answered by the model using only the retrieved
recipes.

Examples:
  ladle ask "what can I cook with chicken and leeks?"
  ladle ask "a healthy weeknight dinner under 30 minutes"
  ladle ask "something vegetarian without mushrooms, rated 4 or better"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing is opt-in, no-op when keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			d, err := buildDeps(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer d.close()

			question := strings.Join(args, " ")
			_, err = d.svc.Answer(ctx, question, os.Stdout)
			if errors.Is(err, service.ErrNoRecipes) {
				fmt.Println("No relevant recipes found for that question.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	return cmd
}
