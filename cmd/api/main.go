// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyago-ai/flight-concierge/internal/agent"
	"github.com/voyago-ai/flight-concierge/internal/config"
	"github.com/voyago-ai/flight-concierge/internal/handler"
	"github.com/voyago-ai/flight-concierge/internal/intent"
	"github.com/voyago-ai/flight-concierge/internal/llm"
	"github.com/voyago-ai/flight-concierge/internal/middleware"
	natsclient "github.com/voyago-ai/flight-concierge/internal/nats"
	"github.com/voyago-ai/flight-concierge/internal/router"
	"github.com/voyago-ai/flight-concierge/internal/session"
	"github.com/voyago-ai/flight-concierge/internal/tools"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
	"github.com/voyago-ai/flight-concierge/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting flight concierge API")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "flight-concierge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Session store: NATS JetStream in production, in-memory for local runs.
	var (
		store      session.Store
		natsClient *natsclient.Client
	)
	if cfg.SessionStore == "nats" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		store, err = session.NewNATSStore(ctx, natsClient)
		if err != nil {
			log.Error("failed to initialize session store", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("using in-memory session store; conversations will not survive restarts")
		store = session.NewMemoryStore()
	}

	// LLM client is optional: without one the rule-based classifier and
	// canned answers keep the assistant functional.
	var llmClient llm.Client
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.AnthropicAPIKey
	if provider == llm.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	if apiKey != "" {
		llmClient, err = llm.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create LLM client, continuing without it", "error", err)
			llmClient = nil
		}
	}

	ruleClassifier := intent.NewRuleClassifier()
	var classifier intent.Classifier = ruleClassifier
	if llmClient != nil {
		classifier = intent.NewLLMClassifier(llmClient, ruleClassifier, cfg.ClassifierModel, log)
	}

	// Tool adapters. The in-memory provider is the development backend; a
	// real GDS integration plugs in behind the same interfaces.
	adapters := tools.NewInMemory()

	flightAgent := agent.NewFlightAgent(adapters, adapters, log)
	assistantAgent := agent.NewAssistantAgent(adapters, llmClient, cfg.LLMModel, log)

	conversationRouter := router.New(store, classifier, flightAgent, assistantAgent, log)

	healthHandler := handler.NewHealthHandler(natsClient)
	chatHandler := handler.NewChatHandler(conversationRouter, log)
	conversationHandler := handler.NewConversationHandler(store, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Chat accepts anonymous sessions; booking flows check identity
		// downstream.
		r.Use(middleware.OptionalAuth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/stream", chatHandler.ChatStream)

		r.Route("/conversations", func(r chi.Router) {
			// History reads require a signed-in caller with the read
			// scope; an anonymous session has no list to read.
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireScope("conversations:read"))

			r.Get("/", conversationHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Get("/messages", conversationHandler.Messages)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
