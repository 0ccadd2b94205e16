package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/recipe"
)

// Strategy selects the retrieval pipeline, fixed at construction.
type Strategy string

const (
	// StrategySimple runs a single-vector nearest-neighbour search.
	StrategySimple Strategy = "simple"
	// StrategyRRF fuses one filtered sub-query per vector with
	// Reciprocal Rank Fusion.
	StrategyRRF Strategy = "rrf"
)

// ParseStrategy parses a strategy name. "multiquery" is accepted as an alias
// for rrf since that is how the search config names it.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "simple":
		return StrategySimple, nil
	case "rrf", "multiquery":
		return StrategyRRF, nil
	}
	return "", fmt.Errorf("search: unknown strategy %q, valid values: simple, rrf", s)
}

// Hit is one scored retrieval result.
type Hit struct {
	// ID is the vector point ID (the recipe ID).
	ID string
	// Score is the similarity or fused score, higher is better.
	Score float32
	// Entry is the decoded index payload.
	Entry *recipe.IndexEntry
}

// Index is the read surface the retriever needs from the vector index.
type Index interface {
	// Query runs a single nearest-neighbour search.
	Query(ctx context.Context, vector []float32, filter *Filter, limit uint64) ([]Hit, error)

	// QueryFused runs one filtered prefetch sub-query per vector, capped at
	// limit each, and fuses the sub-results with RRF.
	QueryFused(ctx context.Context, vectors [][]float32, filter *Filter, limit uint64) ([]Hit, error)
}

// Retriever executes retrieval with the strategy chosen at construction.
// Read-only: it never mutates the index.
type Retriever struct {
	index    Index
	strategy Strategy
	topK     uint64
}

// NewRetriever constructs a Retriever over index.
func NewRetriever(index Index, strategy Strategy, topK uint64) *Retriever {
	return &Retriever{index: index, strategy: strategy, topK: topK}
}

// Strategy returns the strategy the retriever was constructed with.
func (r *Retriever) Strategy() Strategy { return r.strategy }

// TopK returns the configured result limit.
func (r *Retriever) TopK() uint64 { return r.topK }

// Retrieve runs the configured strategy over the query vectors.
// Simple retrieval requires exactly one vector.
func (r *Retriever) Retrieve(ctx context.Context, vectors [][]float32, filter *Filter) ([]Hit, error) {
	log := logging.FromContext(ctx)

	switch r.strategy {
	case StrategyRRF:
		log.Debug("search: rrf retrieval",
			slog.Int("vectors", len(vectors)),
			slog.Uint64("top_k", r.topK),
			slog.Bool("filtered", filter != nil),
		)
		return r.index.QueryFused(ctx, vectors, filter, r.topK)
	default:
		if len(vectors) != 1 {
			return nil, fmt.Errorf("search: simple retrieval supports exactly one query vector, got %d", len(vectors))
		}
		log.Debug("search: simple retrieval",
			slog.Uint64("top_k", r.topK),
			slog.Bool("filtered", filter != nil),
		)
		return r.index.Query(ctx, vectors[0], filter, r.topK)
	}
}
