package recipe

import (
	"slices"
	"strings"
	"testing"
)

func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }
func floatPtr(v float64) *float64 { return &v }

// TestEmbeddingText verifies the embedded text projection shape.
func TestEmbeddingText(t *testing.T) {
	t.Parallel()

	r := &Recipe{
		Name:        "Roast Chicken",
		Description: "Sunday classic",
		Tags:        []string{"dinner", "roast"},
		Ingredients: []Ingredient{{Display: "1 whole chicken"}},
		Instructions: []Instruction{
			{Text: "Preheat the oven."},
			{Text: "Roast for 90 minutes."},
		},
	}

	text := r.EmbeddingText()
	if !strings.HasPrefix(text, "Roast Chicken. Sunday classic\n") {
		t.Errorf("unexpected prefix: %q", text)
	}
	for _, want := range []string{"dinner, roast", "1 whole chicken", "Roast for 90 minutes."} {
		if !strings.Contains(text, want) {
			t.Errorf("embedding text missing %q", want)
		}
	}
}

// TestFlattenNormalized verifies ordering and multi-name lines.
func TestFlattenNormalized(t *testing.T) {
	t.Parallel()

	r := &Recipe{NormalizedIngredients: []NormalizedIngredient{
		{Names: []string{"chicken"}},
		{Names: []string{"salt", "pepper"}},
	}}
	got := r.FlattenNormalized()
	want := []string{"chicken", "salt", "pepper"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestMissingProperties verifies only absent enrichable properties are
// reported, in stable order.
func TestMissingProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		recipe Recipe
		want   []string
	}{
		{
			name:   "everything missing",
			recipe: Recipe{},
			want:   []string{"recipeCategory", "tags", "tools", "method", "is_healthy", "total_time_minutes"},
		},
		{
			name: "fully enriched",
			recipe: Recipe{
				Category:         []string{"main"},
				Tags:             []string{"dinner"},
				Tools:            []string{"oven"},
				Method:           []string{"roasting"},
				IsHealthy:        boolPtr(false),
				TotalTimeMinutes: intPtr(90),
			},
			want: nil,
		},
		{
			name: "partially enriched",
			recipe: Recipe{
				Tags:      []string{"dinner"},
				IsHealthy: boolPtr(true),
			},
			want: []string{"recipeCategory", "tools", "method", "total_time_minutes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.recipe.MissingProperties(); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEnrichmentInput verifies the compact enrichment prompt rendering.
func TestEnrichmentInput(t *testing.T) {
	t.Parallel()

	r := &Recipe{
		Name:         "Roast Chicken",
		Description:  "Sunday classic",
		Ingredients:  []Ingredient{{Display: "1 whole chicken"}},
		Instructions: []Instruction{{Text: "Roast it."}},
	}

	input := r.EnrichmentInput()
	for _, want := range []string{
		"**name:** Roast Chicken",
		"**description:** Sunday classic",
		"**ingredients:**",
		"- 1 whole chicken",
		"**instructions:**",
		"- Roast it.",
	} {
		if !strings.Contains(input, want) {
			t.Errorf("enrichment input missing %q:\n%s", want, input)
		}
	}
	if strings.HasSuffix(input, "\n") {
		t.Error("trailing newline not trimmed")
	}
}

// TestNewIndexEntry verifies the payload projection and the no-ID guard.
func TestNewIndexEntry(t *testing.T) {
	t.Parallel()

	r := &Recipe{
		ID:     "r1",
		Name:   "Roast Chicken",
		Slug:   "roast-chicken",
		Rating: floatPtr(4.5),
		Ingredients: []Ingredient{
			{Display: "1 whole chicken"},
			{Display: "salt and pepper"},
		},
		Instructions: []Instruction{{Text: "Roast it."}},
		NormalizedIngredients: []NormalizedIngredient{
			{Names: []string{"chicken"}},
			{Names: []string{"salt", "pepper"}},
		},
	}

	e, err := NewIndexEntry(r)
	if err != nil {
		t.Fatalf("NewIndexEntry: %v", err)
	}
	if e.RecipeID != "r1" || e.Slug != "roast-chicken" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.IngredientCount != 2 {
		t.Errorf("ingredient_count = %d, want 2", e.IngredientCount)
	}
	if !slices.Equal(e.NormalizedIngredients, []string{"chicken", "salt", "pepper"}) {
		t.Errorf("normalized = %v", e.NormalizedIngredients)
	}
	if e.Text == "" {
		t.Error("embedding text not populated")
	}

	if _, err := NewIndexEntry(&Recipe{Name: "No ID"}); err == nil {
		t.Error("expected error for recipe without ID")
	}
}

// TestContextText verifies optional fields only render when present.
func TestContextText(t *testing.T) {
	t.Parallel()

	with := &IndexEntry{
		Name:        "Roast Chicken",
		RecipeID:    "r1",
		Slug:        "roast-chicken",
		Rating:      floatPtr(4.5),
		Description: "Sunday classic",
		Ingredients: []string{"1 whole chicken"},
	}
	text := with.ContextText()
	for _, want := range []string{"RecipeName: Roast Chicken", "Rating: 4.5", "Description: Sunday classic"} {
		if !strings.Contains(text, want) {
			t.Errorf("context missing %q", want)
		}
	}

	without := &IndexEntry{Name: "Plain", RecipeID: "r2"}
	text = without.ContextText()
	if strings.Contains(text, "Rating:") || strings.Contains(text, "Description:") {
		t.Errorf("absent fields must not render:\n%s", text)
	}
}
