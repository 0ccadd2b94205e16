package vectordb

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ladleworks/ladle/internal/recipe"
)

// TestPayloadRoundTrip verifies an index entry survives the flatten and
// rebuild cycle the store performs around Qdrant.
func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	rating := 4.5
	healthy := true
	mins := 90
	entry := &recipe.IndexEntry{
		RecipeID:              "r1",
		Name:                  "Roast Chicken",
		Slug:                  "roast-chicken",
		Rating:                &rating,
		Description:           "Sunday classic",
		Ingredients:           []string{"1 whole chicken", "salt"},
		NormalizedIngredients: []string{"chicken", "salt"},
		IngredientCount:       2,
		Category:              []string{"main"},
		Tags:                  []string{"dinner"},
		IsHealthy:             &healthy,
		TotalTimeMinutes:      &mins,
		Text:                  "Roast Chicken. Sunday classic",
	}

	flat, err := entryToPayload(entry)
	if err != nil {
		t.Fatalf("entryToPayload: %v", err)
	}
	payload := qdrant.NewValueMap(flat)

	got, err := payloadToEntry(payload)
	if err != nil {
		t.Fatalf("payloadToEntry: %v", err)
	}
	if got.RecipeID != entry.RecipeID || got.Name != entry.Name || got.Slug != entry.Slug {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.Rating == nil || *got.Rating != rating {
		t.Errorf("rating = %v, want %v", got.Rating, rating)
	}
	if got.IsHealthy == nil || !*got.IsHealthy {
		t.Errorf("is_healthy = %v", got.IsHealthy)
	}
	if got.TotalTimeMinutes == nil || *got.TotalTimeMinutes != mins {
		t.Errorf("total_time_minutes = %v", got.TotalTimeMinutes)
	}
	if got.IngredientCount != 2 {
		t.Errorf("ingredient_count = %d", got.IngredientCount)
	}
	if len(got.NormalizedIngredients) != 2 || got.NormalizedIngredients[0] != "chicken" {
		t.Errorf("normalized = %v", got.NormalizedIngredients)
	}
}

// TestPayloadToEntry_Nil verifies a missing payload maps to a nil entry.
func TestPayloadToEntry_Nil(t *testing.T) {
	t.Parallel()

	got, err := payloadToEntry(nil)
	if err != nil {
		t.Fatalf("payloadToEntry(nil): %v", err)
	}
	if got != nil {
		t.Errorf("entry = %+v, want nil", got)
	}
}
