package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ladleworks/ladle/internal/llm"
	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/prompts"
)

// PassthroughBuilder uses the raw user input as the single search query.
// It never calls a model and never fails.
type PassthroughBuilder struct{}

// Build implements Builder.
func (PassthroughBuilder) Build(_ context.Context, userInput string) (*Extraction, error) {
	return &Extraction{ExpandedQueries: []string{userInput}}, nil
}

// LLMBuilder uses a chat model to expand the user's question into multiple
// query variants and extract constraints. Two independently togglable stages:
//
//  1. Expansion: one structured model call producing the full Extraction.
//     Disabled, the extraction is seeded with the raw input and no call is made.
//  2. Culinary brainstorm: one model call per expanded query, rewriting it in
//     place as a short cooking-instruction sentence.
//
// With both stages on, a build costs exactly 1+len(expanded) model calls.
// Model errors propagate to the caller without retry.
type LLMBuilder struct {
	client     llm.Client
	store      prompts.Store
	expand     bool
	brainstorm bool
}

// NewLLMBuilder constructs an LLMBuilder. expand and brainstorm toggle the
// two stages independently; with both off, Build behaves like
// PassthroughBuilder (zero model calls).
func NewLLMBuilder(client llm.Client, store prompts.Store, expand, brainstorm bool) *LLMBuilder {
	return &LLMBuilder{
		client:     client,
		store:      store,
		expand:     expand,
		brainstorm: brainstorm,
	}
}

// Build implements Builder.
func (b *LLMBuilder) Build(ctx context.Context, userInput string) (*Extraction, error) {
	log := logging.FromContext(ctx)

	var extraction *Extraction
	if b.expand {
		tmpl, err := b.store.Get(prompts.TypeMultiQueryBuilder, "")
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		msgs := llm.FromPrompt(tmpl.Compile(map[string]string{"user_input": userInput}))

		log.Debug("query: expanding user input", slog.String("user_input", userInput))

		extraction = &Extraction{}
		if err := b.client.ChatJSON(ctx, msgs, extraction); err != nil {
			return nil, fmt.Errorf("query: expansion failed: %w", err)
		}
		if len(extraction.ExpandedQueries) == 0 {
			extraction.ExpandedQueries = []string{userInput}
		}
		log.Debug("query: expanded queries",
			slog.Int("count", len(extraction.ExpandedQueries)))
	} else {
		log.Debug("query: expansion disabled, using raw user input",
			slog.String("user_input", userInput))
		extraction = &Extraction{ExpandedQueries: []string{userInput}}
	}

	if b.brainstorm {
		tmpl, err := b.store.Get(prompts.TypeCulinaryBrainstorm, "")
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		for i, q := range extraction.ExpandedQueries {
			msgs := llm.FromPrompt(tmpl.Compile(map[string]string{"user_input": q}))
			rewritten, err := b.client.Chat(ctx, msgs)
			if err != nil {
				return nil, fmt.Errorf("query: brainstorm rewrite failed: %w", err)
			}
			extraction.ExpandedQueries[i] = strings.TrimSpace(rewritten)
		}
		log.Debug("query: brainstorm rewrites applied",
			slog.Int("count", len(extraction.ExpandedQueries)))
	} else {
		log.Debug("query: brainstorm disabled, using raw expanded queries")
	}

	return extraction, nil
}
