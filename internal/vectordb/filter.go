package vectordb

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/ladleworks/ladle/internal/search"
)

// toQdrantFilter translates the engine-neutral filter tree into the Qdrant
// wire filter. A nil filter stays nil, leaving retrieval unfiltered.
func toQdrantFilter(f *search.Filter) *qdrant.Filter {
	if f == nil {
		return nil
	}
	out := &qdrant.Filter{}
	for _, c := range f.Must {
		out.Must = append(out.Must, toQdrantCondition(c))
	}
	for _, c := range f.MustNot {
		out.MustNot = append(out.MustNot, toQdrantCondition(c))
	}
	return out
}

// toQdrantCondition translates a single leaf or nested OR group.
func toQdrantCondition(c search.Condition) *qdrant.Condition {
	switch {
	case c.TextMatch != nil:
		return qdrant.NewMatchText(c.TextMatch.Field, c.TextMatch.Text)

	case c.Match != nil:
		return matchCondition(c.Match)

	case c.Range != nil:
		return qdrant.NewRange(c.Range.Field, &qdrant.Range{
			Gte: c.Range.Gte,
			Gt:  c.Range.Gt,
			Lt:  c.Range.Lt,
			Lte: c.Range.Lte,
		})

	case c.AnyOf != nil:
		return qdrant.NewMatchKeywords(c.AnyOf.Field, c.AnyOf.Values...)

	case len(c.Or) > 0:
		// An OR group becomes a nested filter with only should conditions.
		should := make([]*qdrant.Condition, 0, len(c.Or))
		for _, sub := range c.Or {
			should = append(should, toQdrantCondition(sub))
		}
		return qdrant.NewFilterAsCondition(&qdrant.Filter{Should: should})
	}

	// Zero-value condition: match nothing rather than everything.
	return qdrant.NewFilterAsCondition(&qdrant.Filter{})
}

// matchCondition picks the typed Qdrant match helper for an exact-value leaf.
func matchCondition(m *search.Match) *qdrant.Condition {
	switch v := m.Value.(type) {
	case bool:
		return qdrant.NewMatchBool(m.Field, v)
	case string:
		return qdrant.NewMatch(m.Field, v)
	case int:
		return qdrant.NewMatchInt(m.Field, int64(v))
	case int64:
		return qdrant.NewMatchInt(m.Field, v)
	case float64:
		// Qdrant has no float exact match; integral floats (JSON numbers)
		// match as integers.
		return qdrant.NewMatchInt(m.Field, int64(v))
	}
	return qdrant.NewFilterAsCondition(&qdrant.Filter{})
}
