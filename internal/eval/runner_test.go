package eval

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/query"
	"github.com/ladleworks/ladle/internal/recipe"
	"github.com/ladleworks/ladle/internal/search"
)

// fakePipeline answers every question with a fixed hit list, or fails rows
// whose question contains "boom".
type fakePipeline struct {
	hits []search.Hit
}

func (f *fakePipeline) GenerateQueries(_ context.Context, userInput string) (*query.Extraction, error) {
	if strings.Contains(userInput, "boom") {
		return nil, fmt.Errorf("query: model unavailable")
	}
	return &query.Extraction{ExpandedQueries: []string{userInput}}, nil
}

func (f *fakePipeline) RetrieveRecipes(context.Context, *query.Extraction) ([]search.Hit, error) {
	return f.hits, nil
}

func (f *fakePipeline) PopulateMessages(_ context.Context, userInput string, _ []search.Hit) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage(userInput)}, nil
}

func (f *fakePipeline) Chat(context.Context, []*schema.Message, io.Writer) (string, error) {
	return "try the roast chicken", nil
}

// fakeScroller returns a fixed relevant ID set for any filter.
type fakeScroller struct {
	ids []string
}

func (f *fakeScroller) ScrollIDs(context.Context, *search.Filter) ([]string, error) {
	return f.ids, nil
}

func entryHit(id, name string) search.Hit {
	return search.Hit{ID: id, Score: 0.9, Entry: &recipe.IndexEntry{RecipeID: id, Name: name}}
}

// TestRunner_Run verifies end-to-end row evaluation: metrics against ground
// truth, per-row failure isolation, and persistence.
func TestRunner_Run(t *testing.T) {
	t.Parallel()

	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	pipeline := &fakePipeline{hits: []search.Hit{
		entryHit("r1", "Roast Chicken"),
		entryHit("r2", "Chicken Soup"),
	}}
	scroller := &fakeScroller{ids: []string{"r1", "r3"}}

	rows := []Row{
		{ID: 1, Question: "chicken dinner", ExpectedProperties: map[string]any{
			"must_have_ingredients": []any{"chicken"},
		}},
		{ID: 2, Question: "boom"},
		{ID: 3, Question: "anything"},
	}

	runner := NewRunner(pipeline, scroller, nil, store)
	summary, err := runner.Run(context.Background(), rows, "test", "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Rows != 3 {
		t.Errorf("rows = %d, want 3", summary.Rows)
	}
	if summary.Failures != 1 {
		t.Errorf("failures = %d, want 1", summary.Failures)
	}
	if !strings.HasSuffix(summary.ExperimentName, "_test") {
		t.Errorf("experiment name %q missing label suffix", summary.ExperimentName)
	}

	// Row 1: retrieved [r1 r2], relevant {r1 r3}: precision 0.5, recall 0.5,
	// capped 0.5, mrr 1, hit true. Rows 2 and 3 contribute no metrics.
	if summary.MeanPrecision != 0.5 {
		t.Errorf("precision = %g, want 0.5", summary.MeanPrecision)
	}
	if summary.MeanMRR != 1 {
		t.Errorf("mrr = %g, want 1", summary.MeanMRR)
	}
	if summary.HitRate != 1 {
		t.Errorf("hit rate = %g, want 1", summary.HitRate)
	}

	// All three rows must be persisted, including the failed one.
	var experimentID int64 = 1
	results, err := store.Results(context.Background(), experimentID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("persisted %d results, want 3", len(results))
	}
	if results[1].Success || results[1].Error == "" {
		t.Errorf("failed row not recorded: %+v", results[1])
	}
	if results[2].Retrieval != nil {
		t.Errorf("row without expected_properties should skip metrics, got %+v", results[2].Retrieval)
	}
}

// TestFormatContexts verifies the judge context block shape.
func TestFormatContexts(t *testing.T) {
	t.Parallel()

	rating := 4.5
	hits := []search.Hit{
		{ID: "r1", Entry: &recipe.IndexEntry{
			Name:         "Roast Chicken",
			Rating:       &rating,
			Description:  "Sunday classic",
			Ingredients:  []string{"1 whole chicken"},
			Instructions: []string{"Roast it."},
		}},
		{ID: "r2", Entry: nil},
	}

	blocks, names := formatContexts(hits)
	if len(names) != 1 || names[0] != "Roast Chicken" {
		t.Errorf("names = %v, want [Roast Chicken]", names)
	}
	for _, want := range []string{
		"[RECIPE START]", "Name: Roast Chicken", "Rating: 4.5",
		"Description: Sunday classic", "- 1 whole chicken", "- Roast it.", "[RECIPE END]",
	} {
		if !strings.Contains(blocks, want) {
			t.Errorf("context missing %q:\n%s", want, blocks)
		}
	}
}

// TestExperimentName verifies the timestamp shape and label suffix.
func TestExperimentName(t *testing.T) {
	t.Parallel()

	plain := ExperimentName("")
	if len(plain) != len("20060102_150405") {
		t.Errorf("unexpected name %q", plain)
	}
	labeled := ExperimentName("rrf-top5")
	if !strings.HasSuffix(labeled, "_rrf-top5") {
		t.Errorf("labeled name %q missing suffix", labeled)
	}
}
