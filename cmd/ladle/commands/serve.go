package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/server"
	"github.com/ladleworks/ladle/internal/tracing"
)

// NewServeCmd constructs the `ladle serve` command, which starts the local
// HTTP API over the recipe assistant.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ladle HTTP API",
		Long: `Start the ladle HTTP server on localhost.

The server exposes POST /api/ask for answers with retrieved recipe
references, GET /api/health for dependency health, and GET /metrics for
Prometheus scraping. Protected routes require LADLE_API_KEY as a Bearer
token when set.

Examples:
  ladle serve
  ladle serve --port 9090
  MODEL_PROVIDER=openai ladle serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			d, err := buildDeps(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer d.close()

			pingers := []server.Pinger{
				server.NewModelPinger(d.chatModel, getEnvOrDefault("MODEL_PROVIDER", "ollama")),
				server.NewEmbedderPinger(d.embedder),
				server.NewQdrantPinger(d.store.Client()),
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv, err := server.New(d.svc, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("LADLE_API_KEY"),
			}, reg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
