package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/db"
	"github.com/phishlens/phishlens/internal/handlers"
	"github.com/phishlens/phishlens/internal/messaging"
	"github.com/phishlens/phishlens/internal/ratelimit"
	"github.com/phishlens/phishlens/internal/server"
	"github.com/phishlens/phishlens/internal/sse"
	"github.com/phishlens/phishlens/internal/ws"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the popup, analytics and extension API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := a.logger
	client := a.client()
	hub := sse.NewHub(logger)
	limiter := ratelimit.New()

	opts := []assess.Option{}
	var history handlers.HistoryStore

	// History is optional. With a database, inserts reach the stream
	// through NOTIFY so every instance sees them; without one the pipeline
	// publishes directly.
	database, err := db.Connect(ctx, a.cfg.Database.URL, logger)
	switch {
	case errors.Is(err, db.ErrNoDSN):
		logger.Info("history disabled, no database configured")
		opts = append(opts, assess.WithPublisher(hub))
	case err != nil:
		return err
	default:
		defer database.Close()
		history = database
		opts = append(opts, assess.WithRecorder(database))

		listener := sse.NewPGListener(database.Pool, hub, db.NotifyChannel, sse.TopicAssessments, database.EventPayload, logger)
		go server.RunWithRecovery(ctx, logger, "pg-listener", listener.Listen)
		go server.RunWithRecovery(ctx, logger, "history-retention", func(ctx context.Context) {
			database.RetentionLoop(ctx, a.cfg.Database.Retention, a.cfg.Database.PruneInterval)
		})
	}

	pipeline := assess.NewPipeline(client, a.normalizer(), logger, opts...)
	messages := messaging.NewHandler(client, logger)

	router := handlers.NewRouter(handlers.Deps{
		Pipeline: pipeline,
		Messages: messages,
		Renderer: analytics.NewRenderer(logger, a.cfg.Charts.Width, a.cfg.Charts.Height),
		Hub:      hub,
		History:  history,
		Limiter:  limiter,
		WS:       ws.NewManager(messages, logger),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE + WebSocket need unlimited write time
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "err", err)
		}
	}()

	logger.Info("server starting", "port", a.cfg.Server.Port, "backend", client.Endpoint())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
