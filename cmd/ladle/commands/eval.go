package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/eval"
	"github.com/ladleworks/ladle/internal/logging"
)

// NewEvalCmd constructs the `ladle eval` command, which runs an evaluation
// dataset through the full pipeline and records retrieval and generation
// metrics per experiment.
func NewEvalCmd() *cobra.Command {
	var datasetPath string
	var dbPath string
	var label string
	var limit int
	var noJudge bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate retrieval and answer quality on a dataset",
		Long: `Run an evaluation dataset through the full question-answering pipeline.

For each row the pipeline retrieves and answers as in production; retrieval
is scored against the ground-truth recipe set derived from the row's
expected_properties (precision, recall, MRR, nDCG, hit), and the answer is
scored by an LLM judge for relevancy and faithfulness. Results are persisted
per experiment in a local SQLite database.

The dataset is a JSON array of rows:
  [{"id": 1, "question": "...", "expected_properties": {"must_have_ingredients": ["chicken"]}}]

Examples:
  ladle eval --dataset eval/questions.json
  ladle eval --dataset eval/questions.json --label rrf-top5 --limit 10
  ladle eval --dataset eval/questions.json --no-judge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if datasetPath == "" {
				return fmt.Errorf("eval: --dataset is required")
			}

			rows, err := eval.LoadDataset(datasetPath, limit)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}
			log.Info("loaded dataset",
				slog.String("file", datasetPath),
				slog.Int("rows", len(rows)))

			d, err := buildDeps(ctx, log)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}
			defer d.close()

			if dbPath == "" {
				dbPath, err = eval.DefaultDBPath()
				if err != nil {
					return fmt.Errorf("eval: %w", err)
				}
			}
			store, err := eval.OpenStore(dbPath)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}
			defer store.Close()
			log.Info("experiment store opened", slog.String("path", dbPath))

			var judge *eval.Judge
			if !noJudge {
				judge = eval.NewJudge(d.client, d.prompts)
			}

			settings := experimentSettings()
			runner := eval.NewRunner(d.svc, d.store, judge, store)
			summary, err := runner.Run(ctx, rows, label, settings)
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "f", "", "Path to the evaluation dataset JSON")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the experiment SQLite database (default: ~/.ladle/eval.db)")
	cmd.Flags().StringVarP(&label, "label", "l", "", "Label appended to the timestamped experiment name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Evaluate only the first N rows")
	cmd.Flags().BoolVar(&noJudge, "no-judge", false, "Skip the LLM relevancy/faithfulness judges (retrieval metrics only)")

	return cmd
}

// experimentSettings snapshots the run configuration as JSON for the
// experiment record.
func experimentSettings() string {
	settings := map[string]string{
		"model_provider":            os.Getenv("MODEL_PROVIDER"),
		"embedding_provider":        os.Getenv("EMBEDDING_PROVIDER"),
		"search_strategy":           os.Getenv("SEARCH_STRATEGY"),
		"search_top_k":              os.Getenv("SEARCH_TOP_K"),
		"search_expand_queries":     os.Getenv("SEARCH_EXPAND_QUERIES"),
		"search_brainstorm_queries": os.Getenv("SEARCH_BRAINSTORM_QUERIES"),
	}
	raw, _ := json.Marshal(settings)
	return string(raw)
}

// printSummary renders the experiment summary to stdout.
func printSummary(s *eval.Summary) {
	fmt.Printf("experiment: %s\n", s.ExperimentName)
	fmt.Printf("rows: %d (failures: %d)\n", s.Rows, s.Failures)
	fmt.Printf("precision:     %.3f\n", s.MeanPrecision)
	fmt.Printf("recall:        %.3f\n", s.MeanRecall)
	fmt.Printf("recall_capped: %.3f\n", s.MeanRecallCapped)
	fmt.Printf("mrr:           %.3f\n", s.MeanMRR)
	fmt.Printf("ndcg:          %.3f\n", s.MeanNDCG)
	fmt.Printf("hit_rate:      %.1f%%\n", s.HitRate*100)
	fmt.Printf("relevancy:     %.2f / 5\n", s.MeanRelevancy)
	fmt.Printf("faithfulness:  %.1f%%\n", s.FaithfulnessRate*100)
}
