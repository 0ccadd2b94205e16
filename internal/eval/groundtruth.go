package eval

import (
	"context"
	"fmt"

	"github.com/ladleworks/ladle/internal/search"
)

// Scroller enumerates vector index point IDs matching a filter. Implemented
// by vectordb.Store.
type Scroller interface {
	ScrollIDs(ctx context.Context, filter *search.Filter) ([]string, error)
}

// RelevantIDs enumerates the ground-truth relevant set for an
// expected-properties map by scrolling the whole collection with the
// synthesized filter. Returns nil (no ground truth, metrics skipped) when
// the map produces no filter.
func RelevantIDs(ctx context.Context, index Scroller, expected map[string]any) (map[string]bool, error) {
	filter := search.GroundTruthFilter(ctx, expected)
	if filter == nil {
		return nil, nil
	}

	ids, err := index.ScrollIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("eval: ground-truth scroll failed: %w", err)
	}

	relevant := make(map[string]bool, len(ids))
	for _, id := range ids {
		relevant[id] = true
	}
	return relevant, nil
}
