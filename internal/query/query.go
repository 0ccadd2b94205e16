// Package query converts a raw user question into one or more search queries
// plus any hard constraints the user stated (exclusions, rating and time
// limits, required tools or methods).
package query

import "context"

// Extraction is the structured result of query building: expanded search
// query variants and optional constraints. Optional scalars are pointers so
// "not stated" is distinguishable from a zero value.
type Extraction struct {
	// ExpandedQueries holds the ordered search query variants. Never empty.
	ExpandedQueries []string `json:"expanded_queries"`

	// NegativeIngredients lists food items the user wants to avoid,
	// singular lowercase nouns.
	NegativeIngredients []string `json:"negative_ingredients,omitempty"`

	// OtherNegativeConstraints lists non-ingredient exclusions that are not
	// tools or methods, e.g. "no long prep".
	OtherNegativeConstraints []string `json:"other_negative_constraints,omitempty"`

	// NegativeTools lists kitchen tools to avoid, e.g. "oven".
	NegativeTools []string `json:"negative_tools,omitempty"`

	// NegativeMethods lists cooking methods to avoid, e.g. "fried".
	NegativeMethods []string `json:"negative_methods,omitempty"`

	// MinRating is the minimum recipe rating, inclusive.
	MinRating *float64 `json:"min_rating,omitempty"`

	// MaxRating is the maximum recipe rating, exclusive.
	MaxRating *float64 `json:"max_rating,omitempty"`

	// MaxTotalTimeMinutes is the total-time ceiling, inclusive.
	MaxTotalTimeMinutes *int `json:"max_total_time_minutes,omitempty"`

	// Tools lists kitchen tools the user wants to use.
	Tools []string `json:"tools,omitempty"`

	// Methods lists cooking methods the user wants to use.
	Methods []string `json:"methods,omitempty"`

	// IsHealthy is set only when the user explicitly asked for healthy
	// (true) or indulgent (false) food.
	IsHealthy *bool `json:"is_healthy,omitempty"`
}

// Builder turns a raw user question into an Extraction.
type Builder interface {
	Build(ctx context.Context, userInput string) (*Extraction, error)
}
