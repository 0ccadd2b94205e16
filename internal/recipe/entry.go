package recipe

import (
	"fmt"
	"strings"
)

// IndexEntry is the flattened recipe projection stored as the vector index
// payload. It carries everything retrieval filters match on plus the text
// the chat context is assembled from.
type IndexEntry struct {
	RecipeID              string   `json:"recipe_id"`
	Name                  string   `json:"name"`
	Slug                  string   `json:"slug"`
	TotalTimeMinutes      *int     `json:"total_time_minutes"`
	Description           string   `json:"description"`
	Category              []string `json:"category"`
	Tags                  []string `json:"tags"`
	Tools                 []string `json:"tools"`
	Method                []string `json:"method"`
	Rating                *float64 `json:"rating"`
	IsHealthy             *bool    `json:"is_healthy"`
	Text                  string   `json:"text"`
	Ingredients           []string `json:"ingredients"`
	Instructions          []string `json:"instructions"`
	NormalizedIngredients []string `json:"normalized_ingredients"`
	IngredientCount       int      `json:"ingredient_count"`
}

// NewIndexEntry projects a recipe into its index payload form.
// Returns an error when the recipe has no ID, since the ID doubles as the
// vector point ID.
func NewIndexEntry(r *Recipe) (*IndexEntry, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("recipe: recipe %q has no ID", r.Name)
	}

	ingredients := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = ing.Display
	}
	instructions := make([]string, len(r.Instructions))
	for i, step := range r.Instructions {
		instructions[i] = step.Text
	}

	return &IndexEntry{
		RecipeID:              r.ID,
		Name:                  r.Name,
		Slug:                  r.Slug,
		TotalTimeMinutes:      r.TotalTimeMinutes,
		Description:           r.Description,
		Category:              r.Category,
		Tags:                  r.Tags,
		Tools:                 r.Tools,
		Method:                r.Method,
		Rating:                r.Rating,
		IsHealthy:             r.IsHealthy,
		Text:                  r.EmbeddingText(),
		Ingredients:           ingredients,
		Instructions:          instructions,
		NormalizedIngredients: r.FlattenNormalized(),
		IngredientCount:       len(r.Ingredients),
	}, nil
}

// ContextText renders the entry for inclusion in the chat generation context.
func (e *IndexEntry) ContextText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RecipeName: %s\n", e.Name)
	fmt.Fprintf(&b, "RecipeID: %s\n", e.RecipeID)
	fmt.Fprintf(&b, "Slug: %s\n", e.Slug)
	if e.Rating != nil {
		fmt.Fprintf(&b, "Rating: %g\n", *e.Rating)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", e.Description)
	}
	b.WriteString("Ingredients:\n")
	for _, ing := range e.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	b.WriteString("Instructions:\n")
	for _, step := range e.Instructions {
		fmt.Fprintf(&b, "- %s\n", step)
	}
	return b.String()
}
