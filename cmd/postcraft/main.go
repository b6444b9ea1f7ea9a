// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the postcraft server.
// It loads configuration, connects to the document store, sets up routing,
// and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postcraft/internal/ai"
	"postcraft/internal/config"
	"postcraft/internal/database"
	"postcraft/internal/handlers"
	"postcraft/internal/kv"
	"postcraft/internal/middleware"
	"postcraft/internal/router"
	"postcraft/internal/storage"
	"postcraft/internal/workflow"
	"postcraft/internal/workspace"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreBackend,
		"timezone", cfg.Location.String(),
	)

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		slog.Error("failed to open document store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	// The AI registry needs a context for the Gemini SDK client.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	aiRegistry := ai.NewRegistry(initCtx, cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, ModelImage: cfg.GeminiModelImage, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeAPIKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralAPIKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})
	cancelInit()

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
		"images", aiRegistry.SupportsImageGeneration(),
	)
	if _, err := aiRegistry.Active(); err != nil {
		slog.Warn("no usable ai provider; generation requests will fail", "error", err)
	}

	var gatewayOpts []ai.GatewayOption
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3BucketPublic, cfg.S3PublicURL)
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient != nil:
		gatewayOpts = append(gatewayOpts, ai.WithArchive(storageClient))
		slog.Info("s3 image archive enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketPublic)
	default:
		slog.Warn("s3 storage not configured; generated images are not archived")
	}
	gateway := ai.NewGateway(aiRegistry, gatewayOpts...)

	workspaces := workspace.NewManager(workspace.MachineOpener(backend, workflow.Config{
		Gateway:         gateway,
		UsageLimit:      cfg.UsageLimit,
		Location:        cfg.Location,
		UndoWindow:      cfg.UndoWindow,
		FollowUpTimeout: cfg.FollowUpTimeout,
	}), workspace.Options{IdleTimeout: cfg.IdleTimeout})
	if err := workspaces.Start(); err != nil {
		slog.Error("failed to start workspace janitor", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	defer limiter.Stop()

	api := handlers.NewAPI(workspaces, gateway, handlers.Options{
		Location:     cfg.Location,
		SharePageURL: cfg.SharePageURL,
	})
	handler := router.New(api, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Secure:      !cfg.IsDev(),
		RateLimiter: limiter,
	})

	// WriteTimeout must accommodate generation calls that wait on the model.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	// Commits every pending deletion before the store goes away.
	if err := workspaces.Shutdown(ctx); err != nil {
		slog.Error("workspace shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
}

// openBackend connects the configured document store. The returned func
// releases its connections.
func openBackend(cfg *config.Config) (kv.Backend, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendValkey:
		client, err := kv.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewValkeyBackend(client), func() { client.Close() }, nil

	case config.BackendPostgres:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return kv.NewPostgresBackend(db), func() { db.Close() }, nil
	}

	slog.Warn("using in-memory document store; data is lost on restart")
	return kv.NewMemoryBackend(), func() {}, nil
}
