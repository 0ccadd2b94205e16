package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"

	"github.com/ladleworks/ladle/internal/embedder"
	"github.com/ladleworks/ladle/internal/llm"
	"github.com/ladleworks/ladle/internal/prompts"
	"github.com/ladleworks/ladle/internal/provider"
	"github.com/ladleworks/ladle/internal/query"
	"github.com/ladleworks/ladle/internal/search"
	"github.com/ladleworks/ladle/internal/service"
	"github.com/ladleworks/ladle/internal/vectordb"
)

// deps bundles the assembled collaborators shared by the CLI commands.
// close must be called before exit to release the Qdrant connection.
type deps struct {
	svc       *service.RAGService
	store     *vectordb.Store
	chatModel model.ChatModel //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream
	embedder  embedder.Embedder
	client    llm.Client
	prompts   prompts.Store
	close     func()
}

// buildDeps assembles the full pipeline from environment configuration:
// model provider, embedder, Qdrant store, retriever, query builder, and the
// RAG service on top of them.
func buildDeps(ctx context.Context, log *slog.Logger) (*deps, error) {
	providerCfg := provider.ConfigFromEnv()
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	store, err := buildVectorStore(ctx)
	if err != nil {
		return nil, err
	}

	strategy, err := search.ParseStrategy(os.Getenv("SEARCH_STRATEGY"))
	if err != nil {
		store.Close()
		return nil, err
	}
	topK := getEnvInt("SEARCH_TOP_K", 5)
	retriever := search.NewRetriever(store, strategy, uint64(topK)) //nolint:gosec // topK is a small positive setting

	client := llm.NewModelClient(chatModel, providerCfg.Tuning.Temperature)
	promptStore := prompts.NewStaticStore()

	expand := getEnvBool("SEARCH_EXPAND_QUERIES", true)
	brainstorm := getEnvBool("SEARCH_BRAINSTORM_QUERIES", false)
	var builder query.Builder
	if expand || brainstorm {
		builder = query.NewLLMBuilder(client, promptStore, expand, brainstorm)
	} else {
		builder = query.PassthroughBuilder{}
	}

	svc, err := service.New(&service.Config{
		Builder:       builder,
		Embedder:      emb,
		Retriever:     retriever,
		Client:        client,
		Prompts:       promptStore,
		Health:        store,
		RecipeBaseURL: os.Getenv("RECIPES_BASE_URL"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	log.Info("pipeline assembled",
		slog.String("strategy", string(strategy)),
		slog.Int("top_k", topK),
		slog.Bool("expand_queries", expand),
		slog.Bool("brainstorm_queries", brainstorm),
	)

	return &deps{
		svc:       svc,
		store:     store,
		chatModel: chatModel,
		embedder:  emb,
		client:    client,
		prompts:   promptStore,
		close:     func() { _ = store.Close() },
	}, nil
}

// buildVectorStore connects to Qdrant using the QDRANT_* environment
// configuration and ensures the recipe collection exists.
func buildVectorStore(ctx context.Context) (*vectordb.Store, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)

	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
	vectorSize := getEnvInt("EMBEDDING_DIMENSIONS", embedder.DefaultDimensions(embBackend))

	store, err := vectordb.New(ctx, &vectordb.Config{
		Host:       host,
		Port:       port,
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "ladle-recipes"),
		VectorSize: uint64(vectorSize), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	return store, nil
}

// getEnvOrDefault returns the value of the environment variable or the
// fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the environment variable or the
// fallback when unset or unparsable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvBool returns the boolean value of the environment variable or the
// fallback when unset or unparsable.
func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
