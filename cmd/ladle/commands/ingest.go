package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/ingestion"
	"github.com/ladleworks/ladle/internal/logging"
)

// NewIngestCmd constructs the `ladle ingest` command, which indexes a recipe
// export file into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var file string
	var batchSize int
	var skipEnrichment bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index a recipe export file into the vector store",
		Long: `Load a recipe JSON export, enrich it, and index it into Qdrant.

Recipes missing catalogue properties (category, tags, tools, method,
healthiness, total time) have them inferred by the model, and raw ingredient
lines are normalized to canonical names so that ingredient constraints match
at query time. Each recipe is then embedded and upserted into the collection.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: ladle-recipes)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Model backend: ollama, openai, azure, bedrock, gemini
  EMBEDDING_*          Embedding overrides (see README)

Examples:
  ladle ingest --file recipes.json
  ladle ingest --file recipes_enriched.json --skip-enrichment
  ladle ingest --file recipes.json --batch-size 32`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if file == "" {
				return fmt.Errorf("ingest: --file is required")
			}

			d, err := buildDeps(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer d.close()

			recipes, err := ingestion.LoadDump(file)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			log.Info("loaded recipe dump",
				slog.String("file", file),
				slog.Int("recipes", len(recipes)))

			pipeline, err := ingestion.NewPipeline(d.client, d.prompts, d.embedder, d.store, ingestion.Config{
				BatchSize:      batchSize,
				SkipEnrichment: skipEnrichment,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			indexed, err := pipeline.Ingest(ctx, recipes)
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed after %d recipes: %w", indexed, err)
			}

			log.Info("ingestion complete", slog.Int("indexed", indexed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the recipe JSON export")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Recipes embedded and upserted per batch (default 16)")
	cmd.Flags().BoolVar(&skipEnrichment, "skip-enrichment", false, "Index the dump as-is, without LLM enrichment or ingredient normalization")

	return cmd
}
