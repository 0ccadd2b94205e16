package search

import (
	"context"
	"strings"
	"testing"

	"github.com/ladleworks/ladle/internal/query"
)

// TestExtractionFilter_Empty verifies that an extraction without constraints
// yields no filter at all.
func TestExtractionFilter_Empty(t *testing.T) {
	t.Parallel()

	if f := ExtractionFilter(nil); f != nil {
		t.Errorf("nil extraction: got %+v, want nil", f)
	}
	if f := ExtractionFilter(&query.Extraction{ExpandedQueries: []string{"x"}}); f != nil {
		t.Errorf("constraint-free extraction: got %+v, want nil", f)
	}
}

// TestExtractionFilter_NegativesVerbatim verifies that live negative
// ingredients are lowercased but never synonym-expanded.
func TestExtractionFilter_NegativesVerbatim(t *testing.T) {
	t.Parallel()

	f := ExtractionFilter(&query.Extraction{
		NegativeIngredients: []string{"Mushrooms", "meat"},
	})
	if f == nil {
		t.Fatal("expected a filter")
	}
	if len(f.MustNot) != 2 {
		t.Fatalf("got %d must-not leaves, want 2 (no expansion)", len(f.MustNot))
	}
	if tm := f.MustNot[0].TextMatch; tm == nil || tm.Text != "mushrooms" || tm.Field != "normalized_ingredients" {
		t.Errorf("unexpected first leaf: %+v", f.MustNot[0])
	}
	if tm := f.MustNot[1].TextMatch; tm == nil || tm.Text != "meat" {
		t.Errorf("category name must stay verbatim, got %+v", f.MustNot[1])
	}
}

// TestExtractionFilter_RatingBounds verifies the inclusive lower and
// exclusive upper rating bounds.
func TestExtractionFilter_RatingBounds(t *testing.T) {
	t.Parallel()

	minR, maxR := 3.5, 5.0
	f := ExtractionFilter(&query.Extraction{MinRating: &minR, MaxRating: &maxR})
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("expected one must leaf, got %+v", f)
	}
	r := f.Must[0].Range
	if r == nil || r.Field != "rating" {
		t.Fatalf("expected rating range, got %+v", f.Must[0])
	}
	if r.Gte == nil || *r.Gte != 3.5 {
		t.Errorf("gte = %v, want 3.5", r.Gte)
	}
	if r.Lt == nil || *r.Lt != 5.0 {
		t.Errorf("lt = %v, want 5.0", r.Lt)
	}
	if r.Lte != nil || r.Gt != nil {
		t.Errorf("unexpected extra bounds: %+v", r)
	}
}

// TestExtractionFilter_HealthyUnderThirty covers the common extraction shape
// "healthy, under 30 minutes": two must leaves and no must-not.
func TestExtractionFilter_HealthyUnderThirty(t *testing.T) {
	t.Parallel()

	healthy := true
	limit := 30
	f := ExtractionFilter(&query.Extraction{IsHealthy: &healthy, MaxTotalTimeMinutes: &limit})
	if f == nil {
		t.Fatal("expected a filter")
	}
	if len(f.Must) != 2 || len(f.MustNot) != 0 {
		t.Fatalf("got %d must / %d must-not, want 2 / 0", len(f.Must), len(f.MustNot))
	}
	if r := f.Must[0].Range; r == nil || r.Field != "total_time_minutes" || r.Lte == nil || *r.Lte != 30 {
		t.Errorf("unexpected time leaf: %+v", f.Must[0])
	}
	if m := f.Must[1].Match; m == nil || m.Field != "is_healthy" || m.Value != true {
		t.Errorf("unexpected healthy leaf: %+v", f.Must[1])
	}
}

// TestGroundTruthFilter_Empty verifies that only a fully empty map yields a
// nil filter; inert-only keys still produce an (empty) filter so the
// relevant set becomes the whole collection.
func TestGroundTruthFilter_Empty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if f := GroundTruthFilter(ctx, nil); f != nil {
		t.Errorf("nil map: got %+v, want nil", f)
	}
	if f := GroundTruthFilter(ctx, map[string]any{}); f != nil {
		t.Errorf("empty map: got %+v, want nil", f)
	}

	f := GroundTruthFilter(ctx, map[string]any{"tags": []any{"dinner"}, "limit": 5})
	if f == nil {
		t.Fatal("inert-only map: got nil, want empty filter")
	}
	if len(f.Must) != 0 || len(f.MustNot) != 0 {
		t.Errorf("inert keys must not add leaves: %+v", f)
	}
}

// TestGroundTruthFilter_IngredientExpansion verifies that must-have
// ingredients expand to an OR group of synonyms while must-not ingredients
// expand to one exclusion leaf per synonym.
func TestGroundTruthFilter_IngredientExpansion(t *testing.T) {
	t.Parallel()

	f := GroundTruthFilter(context.Background(), map[string]any{
		"must_have_ingredients":     []any{"meat"},
		"must_not_have_ingredients": []any{"fish"},
	})
	if f == nil {
		t.Fatal("expected a filter")
	}

	if len(f.Must) != 1 {
		t.Fatalf("got %d must leaves, want 1 OR group", len(f.Must))
	}
	or := f.Must[0].Or
	if len(or) < 2 {
		t.Fatalf("category OR group too small: %d members", len(or))
	}
	found := map[string]bool{}
	for _, c := range or {
		if c.TextMatch != nil {
			found[c.TextMatch.Text] = true
		}
	}
	for _, want := range []string{"meat", "chicken", "beef"} {
		if !found[want] {
			t.Errorf("OR group missing synonym %q: %v", want, found)
		}
	}

	// fish expands to one must-not leaf per member, plus the category name.
	if len(f.MustNot) < 2 {
		t.Fatalf("got %d must-not leaves, want one per synonym", len(f.MustNot))
	}
	for _, c := range f.MustNot {
		if c.Or != nil {
			t.Errorf("must-not must stay flat, found OR group: %+v", c)
		}
	}
}

// TestGroundTruthFilter_RatingAsymmetry verifies that ground-truth rating is
// an inclusive lower bound only.
func TestGroundTruthFilter_RatingAsymmetry(t *testing.T) {
	t.Parallel()

	f := GroundTruthFilter(context.Background(), map[string]any{"min_rating": 4.0})
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("expected one must leaf, got %+v", f)
	}
	r := f.Must[0].Range
	if r == nil || r.Gte == nil || *r.Gte != 4.0 {
		t.Fatalf("unexpected rating leaf: %+v", f.Must[0])
	}
	if r.Lt != nil || r.Lte != nil {
		t.Errorf("ground-truth rating must have no upper bound: %+v", r)
	}
}

// TestGroundTruthFilter_UnknownKeySkipped verifies that unknown keys add no
// leaves and do not fail.
func TestGroundTruthFilter_UnknownKeySkipped(t *testing.T) {
	t.Parallel()

	f := GroundTruthFilter(context.Background(), map[string]any{
		"cuisine":    "italian",
		"min_rating": 3.0,
	})
	if f == nil {
		t.Fatal("expected a filter")
	}
	if len(f.Must) != 1 {
		t.Errorf("unknown key must be skipped, got %d leaves", len(f.Must))
	}
}

// TestGroundTruthFilter_Scalars covers the remaining scalar and list keys.
func TestGroundTruthFilter_Scalars(t *testing.T) {
	t.Parallel()

	f := GroundTruthFilter(context.Background(), map[string]any{
		"is_healthy":             true,
		"max_total_time_minutes": 45,
		"max_ingredient_count":   8,
		"tools":                  []any{"Oven"},
		"method":                 []any{"baking"},
		"recipeCategory":         []any{"dessert"},
	})
	if f == nil {
		t.Fatal("expected a filter")
	}
	if len(f.Must) != 6 {
		t.Fatalf("got %d must leaves, want 6", len(f.Must))
	}

	fields := map[string]bool{}
	for _, c := range f.Must {
		switch {
		case c.Match != nil:
			fields[c.Match.Field] = true
		case c.Range != nil:
			fields[c.Range.Field] = true
		case c.AnyOf != nil:
			fields[c.AnyOf.Field] = true
			for _, v := range c.AnyOf.Values {
				if v != strings.ToLower(v) {
					t.Errorf("AnyOf value %q not lowercased", v)
				}
			}
		}
	}
	for _, want := range []string{"is_healthy", "total_time_minutes", "ingredient_count", "tools", "method", "category"} {
		if !fields[want] {
			t.Errorf("missing leaf for field %q", want)
		}
	}
}
