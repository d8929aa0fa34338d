package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/nyra-health/nyra-coach/docs" // This is required for swagger
	"github.com/nyra-health/nyra-coach/internal/coach"
	"github.com/nyra-health/nyra-coach/internal/handlers"
	"github.com/nyra-health/nyra-coach/internal/llm"
	"github.com/nyra-health/nyra-coach/internal/middleware"
	"github.com/nyra-health/nyra-coach/internal/persona"
	"github.com/nyra-health/nyra-coach/internal/routes"
	"github.com/nyra-health/nyra-coach/internal/store"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
}

func serve(ctx context.Context) error {
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	pool, err := store.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if migrateOnStart {
		if err := store.Migrate(ctx, pool, "up"); err != nil {
			return err
		}
	}

	client, err := llm.New(llm.Options{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}

	db := store.NewPostgres(pool)
	responder, err := coach.NewResponder(client, cfg.Chat.HistoryWindow)
	if err != nil {
		return err
	}
	extractor, err := persona.NewExtractor(client, db)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	routes.SetupRoutes(mux, routes.Handlers{
		Health:       handlers.NewHealthHandler(db),
		Conversation: handlers.NewConversationHandler(responder),
		Persona:      handlers.NewPersonaHandler(extractor, db),
		Chats:        handlers.NewChatsHandler(db),
		Auth:         handlers.NewAuthHandler(db),
		GoogleAuth:   handlers.NewGoogleAuthHandler(db, cfg),
	}, &cfg.JWT)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.RequestLogger(c.Handler(mux)),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("llm_provider", cfg.LLM.Provider).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
