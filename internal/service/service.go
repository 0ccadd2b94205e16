// Package service orchestrates the query-to-answer pipeline: query building,
// batched embedding, filtered fusion retrieval, context assembly, and
// generation. One synchronous call sequence per question; the strategy pair
// (query builder, retrieval strategy) is fixed at construction.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/budget"
	"github.com/ladleworks/ladle/internal/llm"
	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/prompts"
	"github.com/ladleworks/ladle/internal/query"
	"github.com/ladleworks/ladle/internal/search"
)

// ErrNoRecipes reports that retrieval found nothing relevant. Front ends
// present it distinctly from a hard failure.
var ErrNoRecipes = errors.New("service: no relevant recipes found")

// HealthChecker is the slice of the vector index the health probe needs.
type HealthChecker interface {
	CollectionExists(ctx context.Context) (bool, error)
}

// Config assembles the collaborators of a RAGService. All fields are
// required except MaxContextTokens (defaults to budget.DefaultMaxContextTokens)
// and Health (health checks report unhealthy when absent).
type Config struct {
	Builder   query.Builder
	Embedder  Embedder
	Retriever *search.Retriever
	Client    llm.Client
	Prompts   prompts.Store
	Health    HealthChecker

	// RecipeBaseURL is the external recipe manager URL used for links in
	// generated answers.
	RecipeBaseURL string

	// MaxContextTokens caps the assembled prompt size; retrieved recipe
	// blocks beyond the budget are dropped worst-first.
	MaxContextTokens int
}

// Embedder mirrors embedder.Embedder; declared here so the service can be
// tested with local fakes without importing the HTTP implementations.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RAGService answers cooking questions over the recipe index.
type RAGService struct {
	builder       query.Builder
	embedder      Embedder
	retriever     *search.Retriever
	client        llm.Client
	prompts       prompts.Store
	health        HealthChecker
	recipeBaseURL string
	maxContext    int
}

// New constructs a RAGService from cfg.
func New(cfg *Config) (*RAGService, error) {
	if cfg.Builder == nil || cfg.Embedder == nil || cfg.Retriever == nil || cfg.Client == nil || cfg.Prompts == nil {
		return nil, fmt.Errorf("service: builder, embedder, retriever, client, and prompts are all required")
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}
	return &RAGService{
		builder:       cfg.Builder,
		embedder:      cfg.Embedder,
		retriever:     cfg.Retriever,
		client:        cfg.Client,
		prompts:       cfg.Prompts,
		health:        cfg.Health,
		recipeBaseURL: cfg.RecipeBaseURL,
		maxContext:    maxCtx,
	}, nil
}

// GenerateQueries builds the structured extraction for a user question.
func (s *RAGService) GenerateQueries(ctx context.Context, userInput string) (*query.Extraction, error) {
	logging.FromContext(ctx).Debug("service: generating queries",
		slog.String("user_input", userInput))
	return s.builder.Build(ctx, userInput)
}

// RetrieveRecipes embeds the expanded queries in one batched call and runs
// the configured retrieval strategy with the extraction's filter.
func (s *RAGService) RetrieveRecipes(ctx context.Context, extraction *query.Extraction) ([]search.Hit, error) {
	log := logging.FromContext(ctx)
	log.Debug("service: retrieving recipes",
		slog.Int("queries", len(extraction.ExpandedQueries)))

	vectors, err := s.embedder.Embed(ctx, extraction.ExpandedQueries)
	if err != nil {
		return nil, fmt.Errorf("service: embedding failed: %w", err)
	}
	if len(vectors) == 0 {
		log.Warn("service: no embeddings generated for queries")
		return nil, nil
	}

	return s.retriever.Retrieve(ctx, vectors, search.ExtractionFilter(extraction))
}

// PopulateMessages assembles the generation prompt from the user question
// and the retrieved recipes. Recipe context blocks are trimmed worst-first
// to fit the token budget.
func (s *RAGService) PopulateMessages(ctx context.Context, userInput string, hits []search.Hit) ([]*schema.Message, error) {
	log := logging.FromContext(ctx)
	log.Debug("service: populating messages",
		slog.String("user_input", userInput),
		slog.Int("hits", len(hits)))

	tmpl, err := s.prompts.Get(prompts.TypeChatGeneration, "")
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	contexts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Entry == nil {
			continue
		}
		contexts = append(contexts, "[RECIPE_START]\n"+h.Entry.ContextText()+"[RECIPE_END]\n")
	}

	// Estimate the prompt without context to know what budget remains.
	base := llm.FromPrompt(tmpl.Compile(map[string]string{
		"external_url": s.recipeBaseURL,
		"context_text": "",
		"query":        userInput,
	}))
	kept := budget.TrimContexts(contexts, budget.EstimateMessages(base), s.maxContext)
	if len(kept) < len(contexts) {
		log.Warn("service: retrieved context trimmed to fit token budget",
			slog.Int("kept", len(kept)),
			slog.Int("retrieved", len(contexts)))
	}

	return llm.FromPrompt(tmpl.Compile(map[string]string{
		"external_url": s.recipeBaseURL,
		"context_text": strings.Join(kept, ""),
		"query":        userInput,
	})), nil
}

// Chat streams the generated answer for pre-assembled messages to w and
// returns the full response text.
func (s *RAGService) Chat(ctx context.Context, msgs []*schema.Message, w io.Writer) (string, error) {
	logging.FromContext(ctx).Debug("service: generating chat response",
		slog.Int("messages", len(msgs)))
	return s.client.StreamChat(ctx, msgs, w)
}

// Answer runs the full pipeline for one question, streaming the response to
// w. Returns ErrNoRecipes when retrieval comes back empty; upstream errors
// propagate for the front end to report.
func (s *RAGService) Answer(ctx context.Context, userInput string, w io.Writer) (string, error) {
	extraction, err := s.GenerateQueries(ctx, userInput)
	if err != nil {
		return "", err
	}

	hits, err := s.RetrieveRecipes(ctx, extraction)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", ErrNoRecipes
	}

	msgs, err := s.PopulateMessages(ctx, userInput, hits)
	if err != nil {
		return "", err
	}

	return s.Chat(ctx, msgs, w)
}

// CheckHealth reports whether the recipe collection is reachable and exists.
func (s *RAGService) CheckHealth(ctx context.Context) bool {
	if s.health == nil {
		return false
	}
	ok, err := s.health.CollectionExists(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("service: health check failed",
			slog.Any("error", err))
		return false
	}
	if !ok {
		logging.FromContext(ctx).Error("service: recipe collection not found")
	}
	return ok
}
