package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ladleworks/ladle/internal/search"
)

// Query implements search.Index: a single nearest-neighbour search with an
// optional filter, top limit by descending similarity.
func (s *Store) Query(ctx context.Context, vector []float32, filter *search.Filter, limit uint64) ([]search.Hit, error) {
	results, err := s.client.Query(ctx, s.buildQuery(vector, filter, limit))
	if err != nil {
		return nil, fmt.Errorf("vectordb: query failed: %w", err)
	}
	return s.toHits(results)
}

// QueryFused implements search.Index: one filtered prefetch sub-query per
// vector, each capped at limit, fused server-side with Reciprocal Rank
// Fusion. The rank constant and tie-break are Qdrant's contract.
func (s *Store) QueryFused(ctx context.Context, vectors [][]float32, filter *search.Filter, limit uint64) ([]search.Hit, error) {
	results, err := s.client.Query(ctx, s.buildFusedQuery(vectors, filter, limit))
	if err != nil {
		return nil, fmt.Errorf("vectordb: fused query failed: %w", err)
	}
	return s.toHits(results)
}

// buildQuery assembles the single-vector query request.
func (s *Store) buildQuery(vector []float32, filter *search.Filter, limit uint64) *qdrant.QueryPoints {
	return &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         toQdrantFilter(filter),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
}

// buildFusedQuery assembles the RRF query request: one prefetch per vector,
// each carrying the shared filter and limit.
func (s *Store) buildFusedQuery(vectors [][]float32, filter *search.Filter, limit uint64) *qdrant.QueryPoints {
	qf := toQdrantFilter(filter)

	prefetch := make([]*qdrant.PrefetchQuery, 0, len(vectors))
	for _, v := range vectors {
		prefetchLimit := limit
		prefetch = append(prefetch, &qdrant.PrefetchQuery{
			Query:  qdrant.NewQuery(v...),
			Filter: qf,
			Limit:  &prefetchLimit,
		})
	}

	return &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Prefetch:       prefetch,
		Query:          qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
}

// toHits decodes scored points into search hits.
func (s *Store) toHits(results []*qdrant.ScoredPoint) ([]search.Hit, error) {
	hits := make([]search.Hit, 0, len(results))
	for _, r := range results {
		entry, err := payloadToEntry(r.GetPayload())
		if err != nil {
			return nil, err
		}
		hits = append(hits, search.Hit{
			ID:    pointIDString(r.GetId()),
			Score: r.GetScore(),
			Entry: entry,
		})
	}
	return hits, nil
}
