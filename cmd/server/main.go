// Command server exposes the quiz-bank converter over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brunobiangulo/quizbank"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := quizbank.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = quizbank.LoadConfig(*configPath); err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}
	if err := quizbank.ApplyEnv(&cfg); err != nil {
		slog.Error("reading environment", "error", err)
		os.Exit(1)
	}

	conv, err := quizbank.New(cfg, quizbank.WithLogger(logger))
	if err != nil {
		slog.Error("creating converter", "error", err)
		os.Exit(1)
	}
	defer conv.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      newServer(conv, logger, os.Getenv("QUIZBANK_API_KEY"), os.Getenv("QUIZBANK_CORS_ORIGINS")),
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "formats", conv.Formats())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// newServer wires the routes and the middleware chain:
// recovery -> cors -> auth -> logging -> mux.
func newServer(conv *quizbank.Converter, logger *slog.Logger, apiKey, corsOrigins string) http.Handler {
	h := newHandler(conv, logger)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /convert", h.handleConvert)
	mux.HandleFunc("GET /formats", h.handleFormats)
	mux.HandleFunc("GET /runs", h.handleListRuns)
	mux.HandleFunc("GET /runs/{id}/documents", h.handleRunDocuments)
	mux.HandleFunc("GET /documents/{id}/questions", h.handleDocumentQuestions)
	mux.HandleFunc("GET /stats", h.handleStats)
	mux.HandleFunc("GET /health", h.handleHealth)

	var handler http.Handler = mux
	handler = logMiddleware(logger, handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(logger, handler)
	return handler
}
