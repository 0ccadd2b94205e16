// Package search builds engine-neutral filter predicate trees from structured
// query extractions and evaluation expected-properties maps, and runs
// retrieval against the vector index. Translation of the predicate tree into
// the Qdrant wire format lives in internal/vectordb.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/query"
)

// Filter is a boolean predicate tree over recipe index payload fields.
// Conditions under Must are ANDed; any Must-Not match excludes a recipe.
// A nil *Filter means "no filter": retrieval runs unfiltered.
type Filter struct {
	Must    []Condition
	MustNot []Condition
}

// Condition is a single predicate leaf or a nested OR group.
// Exactly one field is non-zero.
type Condition struct {
	// TextMatch matches when the payload text field contains the term.
	TextMatch *TextMatch
	// Match matches the payload field exactly (string, number, bool).
	Match *Match
	// Range matches a numeric payload field against bound(s).
	Range *Range
	// AnyOf matches when the payload list field contains any of the values.
	AnyOf *AnyOf
	// Or is a nested group satisfied when at least one member matches.
	Or []Condition
}

// TextMatch is a full-text containment predicate.
type TextMatch struct {
	Field string
	Text  string
}

// Match is an exact-value predicate.
type Match struct {
	Field string
	Value any
}

// Range is a numeric range predicate. Nil bounds are open.
type Range struct {
	Field string
	Gte   *float64
	Gt    *float64
	Lt    *float64
	Lte   *float64
}

// AnyOf is a set-membership predicate: the payload list field must contain
// at least one of Values.
type AnyOf struct {
	Field  string
	Values []string
}

// NewTextMatch returns a text containment leaf.
func NewTextMatch(field, text string) Condition {
	return Condition{TextMatch: &TextMatch{Field: field, Text: text}}
}

// NewMatch returns an exact-value leaf.
func NewMatch(field string, value any) Condition {
	return Condition{Match: &Match{Field: field, Value: value}}
}

// NewAnyOf returns a set-membership leaf with values lowercased.
func NewAnyOf(field string, values []string) Condition {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return Condition{AnyOf: &AnyOf{Field: field, Values: lowered}}
}

// NewOr returns a nested OR group over conds.
func NewOr(conds ...Condition) Condition {
	return Condition{Or: conds}
}

// ExtractionFilter translates a query-time extraction into a filter.
// Negative ingredients are matched verbatim, without synonym expansion:
// live filtering only suppresses what the user actually named, while
// ground-truth filters (see GroundTruthFilter) expand categories.
// Returns nil when the extraction carries no constraints.
func ExtractionFilter(x *query.Extraction) *Filter {
	if x == nil {
		return nil
	}
	f := &Filter{}

	for _, ing := range x.NegativeIngredients {
		f.MustNot = append(f.MustNot, NewTextMatch("normalized_ingredients", strings.ToLower(ing)))
	}

	if x.MinRating != nil || x.MaxRating != nil {
		// Lower bound inclusive, upper bound exclusive.
		f.Must = append(f.Must, Condition{Range: &Range{
			Field: "rating",
			Gte:   x.MinRating,
			Lt:    x.MaxRating,
		}})
	}

	if x.MaxTotalTimeMinutes != nil {
		lte := float64(*x.MaxTotalTimeMinutes)
		f.Must = append(f.Must, Condition{Range: &Range{
			Field: "total_time_minutes",
			Lte:   &lte,
		}})
	}

	if len(x.Tools) > 0 {
		f.Must = append(f.Must, NewAnyOf("tools", x.Tools))
	}
	if len(x.Methods) > 0 {
		f.Must = append(f.Must, NewAnyOf("method", x.Methods))
	}
	if len(x.NegativeTools) > 0 {
		f.MustNot = append(f.MustNot, NewAnyOf("tools", x.NegativeTools))
	}
	if len(x.NegativeMethods) > 0 {
		f.MustNot = append(f.MustNot, NewAnyOf("method", x.NegativeMethods))
	}

	if x.IsHealthy != nil {
		f.Must = append(f.Must, NewMatch("is_healthy", *x.IsHealthy))
	}

	if len(f.Must) == 0 && len(f.MustNot) == 0 {
		return nil
	}
	return f
}

// GroundTruthFilter translates an evaluation expected-properties map into a
// filter used to enumerate the authoritative relevant-ID set for a dataset
// query. Ingredient keys expand category names (meat, fish...) to their
// member synonyms so ground truth stays permissive where query expansion
// generalizes. Unknown keys are logged and skipped, never an error.
// Returns nil when expected is empty.
func GroundTruthFilter(ctx context.Context, expected map[string]any) *Filter {
	if len(expected) == 0 {
		return nil
	}
	log := logging.FromContext(ctx)
	f := &Filter{}

	for key, value := range expected {
		switch key {
		case "must_have_ingredients":
			// Each required ingredient: at least one synonym must match.
			for _, req := range toStrings(value) {
				var or []Condition
				for _, c := range ExpandIngredient(req) {
					or = append(or, NewTextMatch("normalized_ingredients", c))
				}
				f.Must = append(f.Must, NewOr(or...))
			}

		case "must_not_have_ingredients":
			// Stricter than must-have: any synonym match excludes.
			for _, forb := range toStrings(value) {
				for _, c := range ExpandIngredient(forb) {
					f.MustNot = append(f.MustNot, NewTextMatch("normalized_ingredients", c))
				}
			}

		case "is_healthy":
			f.Must = append(f.Must, NewMatch("is_healthy", value))

		case "min_rating":
			if v, ok := toFloat(value); ok {
				f.Must = append(f.Must, Condition{Range: &Range{Field: "rating", Gte: &v}})
			}

		case "max_total_time_minutes":
			if v, ok := toFloat(value); ok {
				f.Must = append(f.Must, Condition{Range: &Range{Field: "total_time_minutes", Lte: &v}})
			}

		case "max_ingredient_count":
			if v, ok := toFloat(value); ok {
				f.Must = append(f.Must, Condition{Range: &Range{Field: "ingredient_count", Lte: &v}})
			}

		case "tags":
			// Inert: tag matching is not yet implemented in the index payload.

		case "tools":
			f.Must = append(f.Must, NewAnyOf("tools", toStrings(value)))

		case "method":
			f.Must = append(f.Must, NewAnyOf("method", toStrings(value)))

		case "recipeCategory":
			f.Must = append(f.Must, NewAnyOf("category", toStrings(value)))

		case "limit":
			// Inert: a dataset display hint, not a filter parameter.

		default:
			log.Warn("search: unknown expected_properties key skipped",
				slog.String("key", key))
		}
	}

	return f
}

// toStrings coerces a decoded JSON value into a string slice.
func toStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vv}
	}
	return nil
}

// toFloat coerces a decoded JSON number into a float64.
func toFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	}
	return 0, false
}
