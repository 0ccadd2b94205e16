package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/ladleworks/ladle/internal/query"
	"github.com/ladleworks/ladle/internal/search"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/health.
	// If empty, /api/health reports only process liveness.
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
}

// pipeline is the slice of the RAG service the ask handler drives.
// *service.RAGService satisfies it; tests inject a fake.
type pipeline interface {
	GenerateQueries(ctx context.Context, userInput string) (*query.Extraction, error)
	RetrieveRecipes(ctx context.Context, extraction *query.Extraction) ([]search.Hit, error)
	PopulateMessages(ctx context.Context, userInput string, hits []search.Hit) ([]*schema.Message, error)
	Chat(ctx context.Context, msgs []*schema.Message, w io.Writer) (string, error)
}

// Server is the HTTP server that exposes the recipe assistant API.
type Server struct {
	// pipeline answers questions over the recipe index.
	pipeline pipeline
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// metrics holds the Prometheus metrics registered by this instance.
	metrics *serverMetrics
	// pingers is the ordered list of dependency probes for GET /api/health.
	pingers []Pinger
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's natural language cooking question.
	Question string `json:"question"`
}

// recipeRef is one retrieved recipe reference returned with the answer.
type recipeRef struct {
	// Name is the recipe name.
	Name string `json:"name"`
	// Slug is the recipe-manager slug, usable to build a recipe URL.
	Slug string `json:"slug,omitempty"`
	// Rating is the recipe rating when present.
	Rating *float64 `json:"rating,omitempty"`
	// Score is the retrieval score the recipe was ranked with.
	Score float32 `json:"score"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Recipes lists the retrieved recipes the answer was grounded on.
	Recipes []recipeRef `json:"recipes"`
}
