package eval

import (
	"context"
	"testing"
)

// TestStore_RoundTrip verifies that experiments and results survive a
// write/read cycle through the in-memory database.
func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	id, err := store.CreateExperiment(ctx, "20260101_120000_test", `{"search_strategy":"rrf"}`)
	if err != nil {
		t.Fatalf("CreateExperiment: %v", err)
	}

	score := 4.5
	ok := Result{
		RowID:                 1,
		Question:              "chicken dinner",
		Answer:                "Try the roast chicken.",
		Success:               true,
		RelevancyScore:        &score,
		RelevancyReasoning:    "directly answers",
		FaithfulnessVerdict:   VerdictFaithful,
		FaithfulnessReasoning: "grounded",
		Retrieval: &Metrics{
			Precision:     0.6,
			Recall:        0.75,
			RecallCapped:  1,
			MRR:           1,
			NDCG:          0.9,
			Hit:           true,
			RelevantCount: 4,
		},
		QueryExtraction: `{"expanded_queries":["chicken dinner"]}`,
		RecipeContext:   "Roast Chicken",
	}
	failed := Result{
		RowID:    2,
		Question: "broken row",
		Success:  false,
		Error:    "embedding failed",
	}

	if err := store.AppendResult(ctx, id, &ok); err != nil {
		t.Fatalf("AppendResult ok: %v", err)
	}
	if err := store.AppendResult(ctx, id, &failed); err != nil {
		t.Fatalf("AppendResult failed: %v", err)
	}

	results, err := store.Results(ctx, id)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	got := results[0]
	if got.RowID != 1 || !got.Success || got.Answer != "Try the roast chicken." {
		t.Errorf("unexpected first result: %+v", got)
	}
	if got.RelevancyScore == nil || *got.RelevancyScore != 4.5 {
		t.Errorf("relevancy score not round-tripped: %v", got.RelevancyScore)
	}
	if got.Retrieval == nil {
		t.Fatal("retrieval metrics not round-tripped")
	}
	if got.Retrieval.Recall != 0.75 || !got.Retrieval.Hit || got.Retrieval.RelevantCount != 4 {
		t.Errorf("unexpected retrieval metrics: %+v", got.Retrieval)
	}

	bad := results[1]
	if bad.Success || bad.Error != "embedding failed" {
		t.Errorf("unexpected failed result: %+v", bad)
	}
	if bad.Retrieval != nil {
		t.Errorf("failed row should have nil retrieval, got %+v", bad.Retrieval)
	}
	if bad.RelevancyScore != nil {
		t.Errorf("failed row should have nil relevancy, got %v", bad.RelevancyScore)
	}
}

// TestStore_UniqueExperimentName verifies the UNIQUE constraint on names.
func TestStore_UniqueExperimentName(t *testing.T) {
	t.Parallel()

	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.CreateExperiment(ctx, "dup", "{}"); err != nil {
		t.Fatalf("first CreateExperiment: %v", err)
	}
	if _, err := store.CreateExperiment(ctx, "dup", "{}"); err == nil {
		t.Error("expected error for duplicate experiment name")
	}
}
