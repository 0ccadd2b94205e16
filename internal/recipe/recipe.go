// Package recipe defines the recipe domain model: the shape recipes arrive in
// from a recipe-manager JSON export, the text projections used for embedding
// and chat context, and the flattened payload stored in the vector index.
package recipe

import "strings"

// Ingredient is a single display-form ingredient line.
type Ingredient struct {
	Display string `json:"display"`
}

// Instruction is a single recipe instruction step.
type Instruction struct {
	Text string `json:"text"`
}

// NormalizedIngredient holds the canonical lowercase name(s) an ingredient
// line was normalized to, e.g. "2 large free-range eggs" -> ["egg"].
type NormalizedIngredient struct {
	Names []string `json:"names"`
}

// Recipe is a recipe as exported by the recipe manager, plus the enrichment
// fields filled in during ingestion. Optional scalar fields are pointers so
// absence is distinguishable from a zero value.
type Recipe struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Image            string   `json:"image,omitempty"`
	TotalTime        string   `json:"totalTime,omitempty"`
	TotalTimeMinutes *int     `json:"total_time_minutes,omitempty"`
	Description      string   `json:"description,omitempty"`
	Category         []string `json:"recipeCategory,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Tools            []string `json:"tools,omitempty"`
	Method           []string `json:"method,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	IsHealthy        *bool    `json:"is_healthy,omitempty"`

	Ingredients           []Ingredient           `json:"recipeIngredients,omitempty"`
	Instructions          []Instruction          `json:"recipeInstructions,omitempty"`
	NormalizedIngredients []NormalizedIngredient `json:"normalizedRecipeIngredients,omitempty"`
}

// EmbeddingText builds the text that is embedded into the vector index:
// name, description, tags, then every ingredient and instruction line.
func (r *Recipe) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(". ")
	b.WriteString(r.Description)
	b.WriteString("\n")
	b.WriteString(strings.Join(r.Tags, ", "))
	b.WriteString("\n")
	for _, ing := range r.Ingredients {
		b.WriteString(ing.Display)
		b.WriteString("\n")
	}
	for _, step := range r.Instructions {
		b.WriteString(step.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// FlattenNormalized returns all normalized ingredient names in order.
func (r *Recipe) FlattenNormalized() []string {
	var out []string
	for _, ing := range r.NormalizedIngredients {
		out = append(out, ing.Names...)
	}
	return out
}

// enrichable enumerates the optional properties the ingestion enrichment pass
// may fill in, together with a presence predicate for each. The list is the
// contract between ingestion and the enrichment prompt: only absent properties
// are requested from the model.
var enrichable = []struct {
	name    string
	present func(*Recipe) bool
}{
	{"recipeCategory", func(r *Recipe) bool { return len(r.Category) > 0 }},
	{"tags", func(r *Recipe) bool { return len(r.Tags) > 0 }},
	{"tools", func(r *Recipe) bool { return len(r.Tools) > 0 }},
	{"method", func(r *Recipe) bool { return len(r.Method) > 0 }},
	{"is_healthy", func(r *Recipe) bool { return r.IsHealthy != nil }},
	{"total_time_minutes", func(r *Recipe) bool { return r.TotalTimeMinutes != nil }},
}

// MissingProperties returns the names of enrichable properties that are
// absent from r, in stable order. An empty result means enrichment can be
// skipped entirely.
func (r *Recipe) MissingProperties() []string {
	var missing []string
	for _, p := range enrichable {
		if !p.present(r) {
			missing = append(missing, p.name)
		}
	}
	return missing
}

// EnrichmentInput builds the recipe description handed to the enrichment
// model: name, description, ingredients and instructions in a compact
// markdown-ish form.
func (r *Recipe) EnrichmentInput() string {
	var b strings.Builder
	b.WriteString("**name:** ")
	b.WriteString(r.Name)
	b.WriteString("\n")
	if r.Description != "" {
		b.WriteString("**description:** ")
		b.WriteString(r.Description)
		b.WriteString("\n")
	}
	if len(r.Ingredients) > 0 {
		b.WriteString("**ingredients:**\n")
		for _, ing := range r.Ingredients {
			b.WriteString("- ")
			b.WriteString(ing.Display)
			b.WriteString("\n")
		}
	}
	if len(r.Instructions) > 0 {
		b.WriteString("**instructions:**\n")
		for _, step := range r.Instructions {
			b.WriteString("- ")
			b.WriteString(step.Text)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
