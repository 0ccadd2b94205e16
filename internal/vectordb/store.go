// Package vectordb implements the recipe vector index on Qdrant: collection
// management, point upsert, single and fused retrieval, and exhaustive
// scrolling for ground-truth enumeration. It also owns the translation of the
// engine-neutral search.Filter tree into the Qdrant wire filter.
package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ladleworks/ladle/internal/recipe"
	"github.com/ladleworks/ladle/internal/search"
)

// Config holds connection parameters for a Qdrant instance.
type Config struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the stored embeddings.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// Store is the recipe vector index backed by a Qdrant collection.
// It implements search.Index.
type Store struct {
	client *qdrant.Client
	cfg    *Config
}

// New connects to Qdrant and ensures the target collection exists,
// creating it with cosine distance if necessary.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectordb: failed to create client: %w", err)
	}

	store := &Store{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection if it does not already exist.
func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("vectordb: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectordb: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// CollectionExists reports whether the configured collection exists.
func (s *Store) CollectionExists(ctx context.Context) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return false, fmt.Errorf("vectordb: failed to check collection existence: %w", err)
	}
	return exists, nil
}

// Upsert stores or updates a batch of index entries with their embeddings.
// entries and vectors must be the same length, paired by position.
func (s *Store) Upsert(ctx context.Context, entries []*recipe.IndexEntry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("vectordb: entry/vector count mismatch: %d entries, %d vectors", len(entries), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for i, entry := range entries {
		payload, err := entryToPayload(entry)
		if err != nil {
			return err
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(entry.RecipeID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectordb: upsert failed: %w", err)
	}

	return nil
}

// ScrollIDs pages through the whole collection and returns the IDs of every
// point matching filter. Used to enumerate evaluation ground truth.
func (s *Store) ScrollIDs(ctx context.Context, filter *search.Filter) ([]string, error) {
	const pageSize = uint32(256)

	var (
		ids    []string
		offset *qdrant.PointId
	)
	for {
		limit := pageSize
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.cfg.Collection,
			Filter:         toQdrantFilter(filter),
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(false),
		})
		if err != nil {
			return nil, fmt.Errorf("vectordb: scroll failed: %w", err)
		}

		for _, p := range resp.GetResult() {
			ids = append(ids, pointIDString(p.GetId()))
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return ids, nil
		}
	}
}

// Client exposes the underlying Qdrant gRPC client for callers that need
// operations outside the store's surface, such as health probes.
func (s *Store) Client() *qdrant.Client {
	return s.client
}

// Close closes the underlying Qdrant gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// pointIDString renders a Qdrant point ID as a string regardless of whether
// it is UUID- or number-shaped.
func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}
