package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/query"
	"github.com/ladleworks/ladle/internal/search"
)

// Pipeline is the slice of the RAG service the evaluation harness drives.
type Pipeline interface {
	GenerateQueries(ctx context.Context, userInput string) (*query.Extraction, error)
	RetrieveRecipes(ctx context.Context, extraction *query.Extraction) ([]search.Hit, error)
	PopulateMessages(ctx context.Context, userInput string, hits []search.Hit) ([]*schema.Message, error)
	Chat(ctx context.Context, msgs []*schema.Message, w io.Writer) (string, error)
}

// Runner evaluates a dataset through the full pipeline. Rows are evaluated
// strictly one at a time so metric log lines stay in stable, readable order.
// A row failure is recorded and the run continues: one bad query never
// aborts a whole experiment.
type Runner struct {
	pipeline Pipeline
	index    Scroller
	judge    *Judge
	store    *Store
}

// NewRunner constructs a Runner. judge may be nil to skip generation
// scoring; store may be nil to skip persistence.
func NewRunner(pipeline Pipeline, index Scroller, judge *Judge, store *Store) *Runner {
	return &Runner{pipeline: pipeline, index: index, judge: judge, store: store}
}

// Summary aggregates an experiment run.
type Summary struct {
	ExperimentName string
	Rows           int
	Failures       int

	MeanPrecision    float64
	MeanRecall       float64
	MeanRecallCapped float64
	MeanMRR          float64
	MeanNDCG         float64
	HitRate          float64

	MeanRelevancy    float64
	FaithfulnessRate float64
}

// Run evaluates every row, persists results when a store is configured, and
// returns the aggregated summary. settings is an opaque JSON snapshot of the
// run configuration stored with the experiment.
func (r *Runner) Run(ctx context.Context, rows []Row, experimentLabel, settings string) (*Summary, error) {
	log := logging.FromContext(ctx)
	name := ExperimentName(experimentLabel)

	var experimentID int64
	if r.store != nil {
		var err error
		experimentID, err = r.store.CreateExperiment(ctx, name, settings)
		if err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		log.Info("eval: evaluating row",
			slog.Int("row", row.ID),
			slog.String("question", row.Question))

		result := r.evaluateRow(ctx, row)
		results = append(results, result)

		if r.store != nil {
			if err := r.store.AppendResult(ctx, experimentID, &result); err != nil {
				return nil, err
			}
		}
	}

	summary := summarize(name, results)
	log.Info("eval: experiment complete",
		slog.String("experiment", name),
		slog.Int("rows", summary.Rows),
		slog.Int("failures", summary.Failures),
		slog.Float64("precision", summary.MeanPrecision),
		slog.Float64("recall", summary.MeanRecall),
		slog.Float64("recall_capped", summary.MeanRecallCapped),
		slog.Float64("mrr", summary.MeanMRR),
		slog.Float64("ndcg", summary.MeanNDCG),
		slog.Float64("hit_rate", summary.HitRate),
		slog.Float64("mean_relevancy", summary.MeanRelevancy),
		slog.Float64("faithfulness_rate", summary.FaithfulnessRate),
	)
	return summary, nil
}

// evaluateRow runs one dataset row end to end. Any pipeline or judge error
// marks the row failed; the error string is recorded and the run continues.
func (r *Runner) evaluateRow(ctx context.Context, row Row) Result {
	log := logging.FromContext(ctx)
	result := Result{RowID: row.ID, Question: row.Question}

	fail := func(err error) Result {
		log.Error("eval: row failed",
			slog.Int("row", row.ID),
			slog.Any("error", err))
		result.Success = false
		result.Error = err.Error()
		return result
	}

	extraction, err := r.pipeline.GenerateQueries(ctx, row.Question)
	if err != nil {
		return fail(err)
	}
	if raw, err := json.Marshal(extraction); err == nil {
		result.QueryExtraction = string(raw)
	}

	hits, err := r.pipeline.RetrieveRecipes(ctx, extraction)
	if err != nil {
		return fail(err)
	}
	contexts, recipeNames := formatContexts(hits)
	result.RecipeContext = strings.Join(recipeNames, "\n")

	msgs, err := r.pipeline.PopulateMessages(ctx, row.Question, hits)
	if err != nil {
		return fail(err)
	}
	answer, err := r.pipeline.Chat(ctx, msgs, io.Discard)
	if err != nil {
		return fail(err)
	}
	result.Answer = answer

	// Retrieval metrics, skipped when the row has no usable ground truth.
	expected, err := ParseExpectedProperties(row.ExpectedProperties)
	if err != nil {
		return fail(err)
	}
	relevant, err := RelevantIDs(ctx, r.index, expected)
	if err != nil {
		return fail(err)
	}
	if relevant == nil {
		log.Warn("eval: no expected_properties, retrieval metrics skipped",
			slog.Int("row", row.ID))
	} else {
		retrievedIDs := make([]string, len(hits))
		for i, h := range hits {
			retrievedIDs[i] = h.ID
		}
		m := Compute(retrievedIDs, relevant)
		result.Retrieval = &m
		log.Info("eval: retrieval metrics",
			slog.Int("row", row.ID),
			slog.Float64("precision", m.Precision),
			slog.Float64("recall", m.Recall),
			slog.Float64("recall_capped", m.RecallCapped),
			slog.Float64("mrr", m.MRR),
			slog.Float64("ndcg", m.NDCG),
			slog.Bool("hit", m.Hit),
			slog.Int("relevant", m.RelevantCount),
		)
	}

	if r.judge != nil {
		rel, err := r.judge.Relevancy(ctx, row.Question, answer)
		if err != nil {
			return fail(err)
		}
		result.RelevancyScore = &rel.Score
		result.RelevancyReasoning = rel.Reasoning

		faith, err := r.judge.Faithfulness(ctx, row.Question, contexts, answer)
		if err != nil {
			return fail(err)
		}
		result.FaithfulnessVerdict = faith.Verdict
		result.FaithfulnessReasoning = faith.Reasoning
	}

	result.Success = true
	return result
}

// formatContexts renders hits for the faithfulness judge and returns the
// retrieved recipe names for reporting.
func formatContexts(hits []search.Hit) (string, []string) {
	var blocks []string
	var names []string
	for _, h := range hits {
		if h.Entry == nil {
			continue
		}
		lines := []string{
			"[RECIPE START]",
			"Name: " + h.Entry.Name,
		}
		if h.Entry.Rating != nil {
			lines = append(lines, fmt.Sprintf("Rating: %g", *h.Entry.Rating))
		}
		lines = append(lines, "Description: "+h.Entry.Description, "Ingredients:")
		for _, ing := range h.Entry.Ingredients {
			lines = append(lines, "- "+ing)
		}
		lines = append(lines, "Method:")
		for _, step := range h.Entry.Instructions {
			lines = append(lines, "- "+step)
		}
		lines = append(lines, "[RECIPE END]")
		blocks = append(blocks, strings.Join(lines, "\n"))
		names = append(names, h.Entry.Name)
	}
	return strings.Join(blocks, "\n"), names
}

// summarize aggregates per-row results into an experiment summary.
func summarize(name string, results []Result) *Summary {
	s := &Summary{ExperimentName: name, Rows: len(results)}

	var precision, recall, recallCapped, mrr, ndcgScores, hits, relevancy []float64
	faithful, judged := 0, 0

	for _, r := range results {
		if !r.Success {
			s.Failures++
		}
		if r.Retrieval != nil {
			precision = append(precision, r.Retrieval.Precision)
			recall = append(recall, r.Retrieval.Recall)
			recallCapped = append(recallCapped, r.Retrieval.RecallCapped)
			mrr = append(mrr, r.Retrieval.MRR)
			ndcgScores = append(ndcgScores, r.Retrieval.NDCG)
			if r.Retrieval.Hit {
				hits = append(hits, 1)
			} else {
				hits = append(hits, 0)
			}
		}
		if r.RelevancyScore != nil {
			relevancy = append(relevancy, *r.RelevancyScore)
		}
		if r.FaithfulnessVerdict != "" {
			judged++
			if r.FaithfulnessVerdict == VerdictFaithful {
				faithful++
			}
		}
	}

	s.MeanPrecision = Mean(precision)
	s.MeanRecall = Mean(recall)
	s.MeanRecallCapped = Mean(recallCapped)
	s.MeanMRR = Mean(mrr)
	s.MeanNDCG = Mean(ndcgScores)
	s.HitRate = Mean(hits)
	s.MeanRelevancy = Mean(relevancy)
	if judged > 0 {
		s.FaithfulnessRate = float64(faithful) / float64(judged)
	}
	return s
}

// ExperimentName returns a timestamped experiment name, optionally suffixed
// with label.
func ExperimentName(label string) string {
	ts := time.Now().Format("20060102_150405")
	if label == "" {
		return ts
	}
	return ts + "_" + label
}
