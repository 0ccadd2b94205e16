package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/logging"
)

// checkTimeout bounds each individual connectivity probe.
const checkTimeout = 15 * time.Second

// NewDiagnoseCmd constructs the `ladle diagnose` command, which probes the
// configured model, embedder, and vector index and reports what works.
func NewDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check connectivity to the model, embedder, and vector index",
		Long: `Probe every configured dependency and report the results.

Checks, in order:
  1. chat model    — a minimal generate request
  2. embedder      — embedding a single probe string
  3. vector index  — Qdrant reachability and recipe collection presence

Exit status is non-zero when any check fails.

Examples:
  ladle diagnose
  MODEL_PROVIDER=openai ladle diagnose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			d, err := buildDeps(ctx, log)
			if err != nil {
				return fmt.Errorf("diagnose: %w", err)
			}
			defer d.close()

			failures := 0

			report := func(name string, err error) {
				if err != nil {
					failures++
					fmt.Printf("  FAIL  %s: %v\n", name, err)
					return
				}
				fmt.Printf("  ok    %s\n", name)
			}

			fmt.Println("diagnosing configured dependencies:")

			report("chat model", withTimeout(ctx, func(ctx context.Context) error {
				resp, err := d.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
				if err != nil {
					return err
				}
				if resp == nil {
					return fmt.Errorf("empty response")
				}
				return nil
			}))

			report("embedder", withTimeout(ctx, func(ctx context.Context) error {
				vectors, err := d.embedder.Embed(ctx, []string{"ping"})
				if err != nil {
					return err
				}
				if len(vectors) != 1 || len(vectors[0]) == 0 {
					return fmt.Errorf("no vector returned")
				}
				return nil
			}))

			report("vector index", withTimeout(ctx, func(ctx context.Context) error {
				exists, err := d.store.CollectionExists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("recipe collection not found, run 'ladle ingest' first")
				}
				return nil
			}))

			if failures > 0 {
				return fmt.Errorf("diagnose: %d check(s) failed", failures)
			}
			fmt.Println("all checks passed")
			return nil
		},
	}
}

// withTimeout runs fn under a per-check timeout.
func withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return fn(ctx)
}
