package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/agents"
	"maitred/internal/api"
	"maitred/internal/catalog"
	"maitred/internal/config"
	"maitred/internal/conversation"
	"maitred/internal/database"
	"maitred/internal/feedback"
	"maitred/internal/kitchen"
	"maitred/internal/llm"
	"maitred/internal/logger"
	"maitred/internal/monitoring"
	"maitred/internal/orchestrator"
	"maitred/internal/retrieval"
	"maitred/internal/retry"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.Server.MetricsPort = *metricsPort
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	policy := retry.Policy{
		MaxRetries:     cfg.Retry.MaxRetries,
		Delay:          cfg.Retry.Delay,
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}

	db, err := initializeDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	retriever, err := initializeRetrieval(ctx, cfg, db, cat, policy)
	if err != nil {
		log.Fatalf("Failed to initialize retrieval: %v", err)
	}

	provider := initializeLLM(cfg)

	convRepo, err := conversation.NewRepository(ctx, cfg.Conversation)
	if err != nil {
		log.Fatalf("Failed to initialize conversation store: %v", err)
	}
	store := conversation.NewStore(convRepo, conversation.TrimPolicy{
		MaxMessages: cfg.Conversation.MaxMessages,
		MaxTokens:   cfg.Conversation.MaxTokens,
		Counter:     llm.TokenCounter(cfg.LLM.Model),
	})

	kitchenRepo, feedbackRepo := initializeRepositories(db)
	if cfg.Database.Seed {
		if err := database.Seed(ctx, kitchenRepo, feedbackRepo, time.Now()); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	collector := monitoring.NewCollector()
	monitor := monitoring.NewMonitor()
	tracker := kitchen.NewTracker(kitchenRepo)
	analyzer := agents.NewAnalyzer(provider, policy)

	orch := orchestrator.New(orchestrator.Deps{
		Retriever: retriever,
		Agents: agents.NewRegistry(
			agents.NewRecommendationAgent(provider, policy),
			agents.NewFeedbackAgent(analyzer),
			agents.NewKitchenAgent(),
			agents.NewGeneralAgent(provider, policy),
		),
		Store:     store,
		Escalator: tracker,
		Metrics:   collector,
		Monitor:   monitor,
		Retry:     &policy,
	}, orchestrator.Options{
		TopK:          cfg.Retrieval.TopK,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		ChunkSize:     cfg.Stream.ChunkSize,
	})

	server := api.NewServer(api.Deps{
		Orchestrator: orch,
		Kitchen:      tracker,
		Feedback:     feedback.NewService(feedbackRepo, analyzer, tracker, cat).WithMetrics(collector),
		Catalog:      cat,
		Monitor:      monitor,
		ChunkSize:    cfg.Stream.ChunkSize,
	})

	metricsServer := startMetricsServer(cfg.Server.MetricsPort, collector)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error: %v", err)
		}

		cancel()
	}()

	logger.Info("Starting API server on port %d (%d meals indexed)", cfg.Server.Port, cat.Len())
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// initializeDB returns nil when no database driver is configured.
func initializeDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "" {
		return nil, nil
	}
	return database.Open(cfg.Database)
}

// initializeRepositories keeps kitchen requests and feedback in the database
// when one is configured, in memory otherwise.
func initializeRepositories(db *gorm.DB) (kitchen.Repository, feedback.Repository) {
	if db == nil {
		return kitchen.NewMemoryRepository(), feedback.NewMemoryRepository()
	}
	return database.NewKitchenRepository(db), database.NewFeedbackRepository(db)
}

// initializeLLM returns nil when no model can be built; agents then answer
// with their degraded replies.
func initializeLLM(cfg *config.Config) llm.Provider {
	p, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, replies will be degraded: %v", err)
		return nil
	}
	logger.Info("LLM ready: provider=%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)
	return p
}

func initializeRetrieval(ctx context.Context, cfg *config.Config, db *gorm.DB, cat *catalog.Catalog, policy retry.Policy) (*retrieval.Engine, error) {
	embedder, err := retrieval.NewEmbedder(cfg.Embedding, cfg.LLM)
	if err != nil {
		return nil, err
	}

	var index retrieval.Index
	switch cfg.VectorIndex.Provider {
	case "chroma":
		index = retrieval.NewChromaIndex(cfg.VectorIndex.URL, cfg.VectorIndex.Collection, cfg.VectorIndex.Timeout)
	case "database":
		index = database.NewVectorIndex(db)
	default:
		index = retrieval.NewMemoryIndex()
	}

	if err := retrieval.IndexCatalog(ctx, embedder, index, cat); err != nil {
		return nil, err
	}
	logger.Info("Catalog indexed: embedder=%s index=%s", cfg.Embedding.Provider, cfg.VectorIndex.Provider)
	return retrieval.NewEngine(embedder, index, cat, policy), nil
}

func startMetricsServer(port int, collector *monitoring.Collector) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(collector.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("Starting metrics server on port %d", port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Metrics server error: %v", err)
		}
	}()
	return metricsServer
}
