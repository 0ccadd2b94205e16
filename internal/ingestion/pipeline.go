// Package ingestion implements the recipe indexing pipeline. It loads a
// recipe-manager JSON export, fills in missing catalogue properties and
// normalized ingredients with an LLM, embeds each recipe, and upserts the
// results into the vector store. Invoked by the `ladle ingest` CLI command.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/ladleworks/ladle/internal/embedder"
	"github.com/ladleworks/ladle/internal/llm"
	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/prompts"
	"github.com/ladleworks/ladle/internal/recipe"
)

// Upserter persists embedded index entries. Implemented by vectordb.Store.
type Upserter interface {
	Upsert(ctx context.Context, entries []*recipe.IndexEntry, vectors [][]float32) error
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// BatchSize is the number of recipes embedded and upserted per batch.
	// Defaults to 16 if zero.
	BatchSize int

	// SkipEnrichment disables the LLM enrichment and normalization passes,
	// indexing the dump as-is. Useful when the dump was enriched beforehand.
	SkipEnrichment bool
}

// Pipeline orchestrates the load, enrich, embed, upsert flow for a recipe
// dump file.
type Pipeline struct {
	client   llm.Client
	store    prompts.Store
	embedder embedder.Embedder
	index    Upserter
	cfg      Config
}

// NewPipeline constructs a Pipeline from the provided dependencies.
// client and store may be nil only when cfg.SkipEnrichment is set.
func NewPipeline(client llm.Client, store prompts.Store, emb embedder.Embedder, index Upserter, cfg Config) (*Pipeline, error) {
	if emb == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("ingestion: index must not be nil")
	}
	if !cfg.SkipEnrichment && (client == nil || store == nil) {
		return nil, fmt.Errorf("ingestion: enrichment requires a model client and prompt store")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	return &Pipeline{client: client, store: store, embedder: emb, index: index, cfg: cfg}, nil
}

// LoadDump reads a recipe JSON export: an array of recipe objects.
func LoadDump(path string) ([]*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: failed to read dump %s: %w", path, err)
	}
	var recipes []*recipe.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("ingestion: failed to parse dump %s: %w", path, err)
	}
	return recipes, nil
}

// Ingest enriches, embeds, and indexes all recipes. Recipes that fail
// enrichment are indexed as-is; recipes without an ID are skipped. The
// number of indexed recipes is returned.
func (p *Pipeline) Ingest(ctx context.Context, recipes []*recipe.Recipe) (int, error) {
	log := logging.FromContext(ctx)

	entries := make([]*recipe.IndexEntry, 0, len(recipes))
	for i, r := range recipes {
		log.Info("ingestion: processing recipe",
			slog.Int("index", i+1),
			slog.Int("total", len(recipes)),
			slog.String("name", r.Name))

		if !p.cfg.SkipEnrichment {
			if err := p.enrich(ctx, r); err != nil {
				log.Warn("ingestion: enrichment failed, indexing recipe as-is",
					slog.String("name", r.Name),
					slog.Any("error", err))
			}
			if len(r.NormalizedIngredients) == 0 && len(r.Ingredients) > 0 {
				if err := p.normalize(ctx, r); err != nil {
					log.Warn("ingestion: ingredient normalization failed",
						slog.String("name", r.Name),
						slog.Any("error", err))
				}
			}
		}

		entry, err := recipe.NewIndexEntry(r)
		if err != nil {
			log.Warn("ingestion: skipping recipe", slog.Any("error", err))
			continue
		}
		entries = append(entries, entry)
	}

	indexed := 0
	for batch := range slices.Chunk(entries, p.cfg.BatchSize) {
		texts := make([]string, len(batch))
		for i, e := range batch {
			texts[i] = e.Text
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("ingestion: embedding batch failed: %w", err)
		}
		if err := p.index.Upsert(ctx, batch, vectors); err != nil {
			return indexed, fmt.Errorf("ingestion: upsert failed: %w", err)
		}
		indexed += len(batch)
		log.Info("ingestion: indexed batch",
			slog.Int("indexed", indexed),
			slog.Int("total", len(entries)))
	}
	return indexed, nil
}

// enrichment mirrors the optional recipe properties the model may fill in.
type enrichment struct {
	Category         []string `json:"recipeCategory"`
	Tags             []string `json:"tags"`
	Tools            []string `json:"tools"`
	Method           []string `json:"method"`
	IsHealthy        *bool    `json:"is_healthy"`
	TotalTimeMinutes *int     `json:"total_time_minutes"`
}

// enrich asks the model for the recipe's missing properties in a single
// structured call and applies only those. Present properties are never
// overwritten.
func (p *Pipeline) enrich(ctx context.Context, r *recipe.Recipe) error {
	missing := r.MissingProperties()
	if len(missing) == 0 {
		return nil
	}

	tmpl, err := p.store.Get(prompts.TypeIngestEnrichRecipes, "")
	if err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}
	input := fmt.Sprintf("Requested fields: %s\n\n%s",
		jsonList(missing), r.EnrichmentInput())
	msgs := llm.FromPrompt(tmpl.Compile(map[string]string{"user_input": input}))

	var e enrichment
	if err := p.client.ChatJSON(ctx, msgs, &e); err != nil {
		return fmt.Errorf("ingestion: enrichment call failed: %w", err)
	}

	for _, name := range missing {
		switch name {
		case "recipeCategory":
			if len(e.Category) > 0 {
				r.Category = e.Category
			}
		case "tags":
			if len(e.Tags) > 0 {
				r.Tags = e.Tags
			}
		case "tools":
			if len(e.Tools) > 0 {
				r.Tools = e.Tools
			}
		case "method":
			if len(e.Method) > 0 {
				r.Method = e.Method
			}
		case "is_healthy":
			if e.IsHealthy != nil {
				r.IsHealthy = e.IsHealthy
			}
		case "total_time_minutes":
			if e.TotalTimeMinutes != nil {
				r.TotalTimeMinutes = e.TotalTimeMinutes
			}
		}
	}
	return nil
}

// normalize asks the model for canonical ingredient names, one entry per
// ingredient line. A response with the wrong number of entries is rejected.
func (p *Pipeline) normalize(ctx context.Context, r *recipe.Recipe) error {
	tmpl, err := p.store.Get(prompts.TypeIngestNormalizeIngredients, "")
	if err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}
	lines := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		lines[i] = ing.Display
	}
	msgs := llm.FromPrompt(tmpl.Compile(map[string]string{"user_input": jsonList(lines)}))

	var resp struct {
		Ingredients []recipe.NormalizedIngredient `json:"ingredients"`
	}
	if err := p.client.ChatJSON(ctx, msgs, &resp); err != nil {
		return fmt.Errorf("ingestion: normalization call failed: %w", err)
	}
	if len(resp.Ingredients) != len(r.Ingredients) {
		return fmt.Errorf("ingestion: normalization returned %d entries for %d ingredients",
			len(resp.Ingredients), len(r.Ingredients))
	}
	r.NormalizedIngredients = resp.Ingredients
	return nil
}

// jsonList renders strings as a JSON array for prompt input.
func jsonList(items []string) string {
	raw, _ := json.Marshal(items)
	return string(raw)
}
