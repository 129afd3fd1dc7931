// cmd/askelio-worker/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/askelio/docpipeline/internal/adapters/llmadapter"
	"github.com/askelio/docpipeline/internal/adapters/ocradapter"
	"github.com/askelio/docpipeline/internal/config"
	"github.com/askelio/docpipeline/internal/data/repositories/postgres"
	"github.com/askelio/docpipeline/internal/dedup"
	"github.com/askelio/docpipeline/internal/jobs"
	"github.com/askelio/docpipeline/internal/pipeline"
	"github.com/askelio/docpipeline/internal/registry"
	"github.com/askelio/docpipeline/internal/storage"
	"github.com/askelio/docpipeline/internal/utils"
)

func main() {
	// 1. Load configuration.
	ctx := context.Background()
	cfg, err := config.LoadConfig(ctx, ".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger.
	logger, err := utils.InitLogger(&cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			log.Printf("failed to sync logger during shutdown: %v", syncErr)
		}
	}()

	logger.Info("starting askelio document-processing worker")

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker panicked: %v\nstack trace: %s", r, debug.Stack())
			logger.Error("panic recovered in main", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 3. Database pool.
	dbPool, err := newPgxPool(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	documents := postgres.NewDocumentRepository(dbPool)

	// 4. File staging storage.
	fileStorage, err := storage.NewLocalStorage(&cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize file storage", zap.Error(err))
	}

	// 5. OCR adapter registry.
	ocrAdapters := []ocradapter.Adapter{ocradapter.NewTesseractAdapter("eng+ces", logger)}
	ocrCapabilities := []ocradapter.Capability{
		{
			AdapterID:         ocradapter.TesseractAdapterID,
			ConfidenceBase:    0.75,
			CostPerPageUSD:    0.0,
			AverageLatencyMS:  1500,
			LanguageSupported: map[string]bool{"": true, "en": true, "local": true},
		},
	}
	if key, ok := cfg.OCRProviderKeys["google_vision"]; ok {
		visionAdapter, err := ocradapter.NewGoogleVisionAdapter(ctx, key, logger)
		if err != nil {
			logger.Warn("google vision adapter unavailable, continuing without it", zap.Error(err))
		} else {
			ocrAdapters = append(ocrAdapters, visionAdapter)
			ocrCapabilities = append(ocrCapabilities, ocradapter.Capability{
				AdapterID:         ocradapter.GoogleVisionAdapterID,
				ConfidenceBase:    0.92,
				CostPerPageUSD:    0.0015,
				AverageLatencyMS:  900,
				LanguageSupported: map[string]bool{"": true, "en": true, "local": true},
			})
		}
	}
	ocrRegistry := ocradapter.NewRegistry(ocrAdapters, ocrCapabilities)
	ocrOrchestrator := pipeline.NewOCROrchestrator(ocrRegistry, logger)

	// 6. LLM adapter registry.
	var llmAdapters []llmadapter.Adapter
	var llmModels []llmadapter.ModelProfile
	if cfg.LLMProviderKey != "" {
		prices := map[string]llmadapter.PriceRow{
			cfg.GeminiModel: {InPer1K: 0.0003, OutPer1K: 0.0009},
		}
		geminiAdapter := llmadapter.NewGeminiAdapter(cfg.LLMProviderKey, prices, logger)
		llmAdapters = append(llmAdapters, geminiAdapter)
		llmModels = append(llmModels, llmadapter.ModelProfile{
			AdapterID:         llmadapter.GeminiAdapterID,
			ModelID:           cfg.GeminiModel,
			Accuracy:          0.90,
			CostPer1KTokensIn: prices[cfg.GeminiModel].InPer1K,
			CostPer1KOut:      prices[cfg.GeminiModel].OutPer1K,
			AverageLatencyMS:  2500,
			LanguageSupported: map[string]bool{"": true, "en": true, "local": true},
			Reasoning:         0.85,
		})
	} else {
		logger.Warn("LLM_PROVIDER_KEY not set, structuring will fall back to the regex baseline for every document")
	}
	llmRegistry := llmadapter.NewRegistry(llmAdapters, llmModels)

	var promptMgr llmadapter.PromptManager
	if fpm, err := llmadapter.NewFilePromptManager(cfg.PromptTemplatePath, logger); err != nil {
		logger.Warn("prompt template directory unavailable, falling back to the built-in default prompt", zap.Error(err))
	} else {
		promptMgr = fpm
	}

	ledger := pipeline.NewCostLedger()
	llmOrchestrator := pipeline.NewLLMOrchestrator(llmRegistry, promptMgr, ledger, cfg.MaxDailyCostUSD, cfg.MaxMonthlyCostUSD, 4096, logger)

	// 7. Registry Client + Enrichment Stage.
	registryClient := registry.NewClient(cfg.RegistryBaseURL, logger)
	enrichmentStage := pipeline.NewEnrichmentStage(registryClient)

	// 8. Duplicate Detector.
	detector := dedup.NewDetector(documents)

	// 9. Pipeline Coordinator + Async Job Manager.
	coordinator := pipeline.NewCoordinator(fileStorage, ocrOrchestrator, llmOrchestrator, enrichmentStage, detector, documents, logger)
	manager := jobs.NewManager(coordinator, documents, cfg.WorkerCount, cfg.JobRetention, logger)

	runCtx, cancel := context.WithCancel(ctx)
	manager.Start(runCtx)

	logger.Info("worker pool started", zap.Int("worker_count", cfg.WorkerCount))

	// 10. Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, draining in-flight jobs")
	cancel()
	manager.Stop()
	logger.Info("worker stopped gracefully")
}

func newPgxPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode, cfg.DBMaxOpenConns)
	return pgxpool.New(ctx, dsn)
}
