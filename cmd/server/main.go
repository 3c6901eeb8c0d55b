package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clausecheck-backend/analysis"
	"clausecheck-backend/catalog"
	"clausecheck-backend/config"
	"clausecheck-backend/extract"
	"clausecheck-backend/handlers"
	"clausecheck-backend/llm"
	"clausecheck-backend/repository"
	"clausecheck-backend/service"
	"clausecheck-backend/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regulations, err := catalog.Load(cfg.RegulationsFile)
	if err != nil {
		log.Fatalf("Failed to load regulation catalog: %v", err)
	}
	log.Printf("Loaded %d regulations", len(regulations.Regulations()))

	geminiClient, err := initGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer geminiClient.Close()

	gemini := llm.NewGeminiService(geminiClient,
		llm.GeminiWithModel(cfg.GeminiModel),
		llm.GeminiWithRateLimit(cfg.GeminiRPS, int(cfg.GeminiRPS)+1),
	)

	analyzer := analysis.NewAnalyzer(gemini, regulations,
		analysis.WithMaxConcurrency(cfg.MaxConcurrency),
		analysis.WithCallTimeout(cfg.CallTimeout),
		analysis.WithMinClauseCount(cfg.MinClauseCount),
		analysis.WithKeyIssueLimit(cfg.KeyIssueLimit),
	)

	opts := []service.AnalysisServiceOption{
		service.AnalysisWithAnalyzer(analyzer),
		service.AnalysisWithExtractor(extract.NewDocumentExtractor()),
		service.AnalysisWithBatchLimit(cfg.BatchMaxDocuments),
	}

	// Archiving uploads needs both a database and a storage backend
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer db.Close()

		fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		log.Printf("Storage initialized (%s)", cfg.Storage.Type)

		opts = append(opts,
			service.AnalysisWithStorage(fileStorage),
			service.AnalysisWithFileRepository(repository.NewFileRepository(db)),
		)
	} else {
		log.Println("Warning: DATABASE_URL not set, uploads will not be archived")
	}

	analysisService := service.NewAnalysisService(opts...)
	router := handlers.NewRouter(
		handlers.NewContractHandler(analysisService, cfg.MaxUploadSize),
		handlers.NewFileHandler(analysisService),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
	log.Println("Server stopped")
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func initGemini(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
