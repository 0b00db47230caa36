package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpadapter "github.com/kirillkom/document-classifier/internal/adapters/http"
	"github.com/kirillkom/document-classifier/internal/config"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/core/usecase"
	"github.com/kirillkom/document-classifier/internal/infrastructure/command"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor"
	"github.com/kirillkom/document-classifier/internal/infrastructure/model"
	"github.com/kirillkom/document-classifier/internal/infrastructure/model/kserve"
	"github.com/kirillkom/document-classifier/internal/infrastructure/model/wordpiece"
	"github.com/kirillkom/document-classifier/internal/infrastructure/ocr"
	"github.com/kirillkom/document-classifier/internal/infrastructure/render"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
	"github.com/kirillkom/document-classifier/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-classifier/internal/observability/metrics"
)

const ServiceName = "classifier-api"

type App struct {
	Config config.Config
	Logger *slog.Logger

	Classifier  ports.DocumentClassifier
	Readiness   ports.ReadinessProbe
	HTTPMetrics *metrics.HTTPServerMetrics
	OpenAPI     []byte
}

// New wires the pipeline. A missing vocabulary or an unreachable model
// server does not fail startup; requests report ModelUnavailable instead.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	openAPI, err := httpadapter.LoadOpenAPI(ctx)
	if err != nil {
		return nil, fmt.Errorf("init api description: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(ServiceName)
	pipelineMetrics := metrics.NewPipeline(ServiceName, httpMetrics.Registry())

	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	})
	runner := command.NewExecRunner(logger)

	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		Binary:      cfg.TesseractPath,
		Language:    cfg.TesseractLang,
		PSM:         cfg.TesseractPSM,
		OEM:         cfg.TesseractOEM,
		TessdataDir: cfg.TessdataDir,
	}, runner)
	ocrStage := ocr.NewStage(
		ocr.NewPreprocessor(cfg.OCRContrastFactor, cfg.OCRMaxPixels),
		tesseract,
		pipelineMetrics,
		logger,
	)
	scratch, err := localfs.New(cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("init scratch storage: %w", err)
	}
	rasterizer, err := render.NewPdftoppm(render.Config{
		Binary: cfg.PdftoppmPath,
		DPI:    cfg.PDFRenderDPI,
	}, scratch, runner, logger)
	if err != nil {
		return nil, fmt.Errorf("init pdf renderer: %w", err)
	}
	textExtractor := extractor.New(ocrStage, rasterizer, logger)

	provider := model.NewProvider(loadTokenizer(cfg, logger), newInferenceServer(cfg), executor, logger)
	if !provider.Refresh(ctx) {
		logger.Warn("model_not_ready_at_startup", "model", cfg.ModelName, "server", cfg.ModelServerURL)
	}

	classifyText := usecase.NewClassifyTextUseCase(provider)
	classifyDocument := usecase.NewClassifyDocumentUseCase(
		provider,
		textExtractor,
		classifyText,
		pipelineMetrics,
		logger,
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Classifier:  classifyDocument,
		Readiness:   provider,
		HTTPMetrics: httpMetrics,
		OpenAPI:     openAPI,
	}, nil
}

// Handler builds the HTTP surface for the API server.
func (a *App) Handler() *httpadapter.Router {
	return httpadapter.NewRouter(a.Config, a.Classifier, a.Readiness, a.HTTPMetrics, a.OpenAPI)
}

// WatchReadiness re-probes the model server until ctx is done, so a model
// that comes up after the process starts is picked up without a restart.
func (a *App) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			a.Readiness.Refresh(probeCtx)
			cancel()
		}
	}
}

// loadTokenizer returns a nil interface, not a typed nil, when the
// vocabulary cannot be read so the provider reports itself not loaded.
func loadTokenizer(cfg config.Config, logger *slog.Logger) model.Tokenizer {
	tokenizer, err := wordpiece.LoadFile(cfg.ModelVocabPath, wordpiece.Config{
		MaxLength: cfg.ModelMaxSequenceLength,
		Lowercase: cfg.ModelLowercase,
	})
	if err != nil {
		logger.Error("tokenizer_load_failed", "path", cfg.ModelVocabPath, "error", err)
		return nil
	}
	logger.Info("tokenizer_loaded", "path", cfg.ModelVocabPath, "max_length", tokenizer.MaxLength())
	return tokenizer
}

func newInferenceServer(cfg config.Config) model.InferenceServer {
	return kserve.New(kserve.Config{
		BaseURL:           cfg.ModelServerURL,
		Model:             cfg.ModelName,
		Version:           cfg.ModelVersion,
		Timeout:           time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
		InputIDsName:      cfg.ModelInputIDsName,
		AttentionMaskName: cfg.ModelAttentionMaskName,
		OutputName:        cfg.ModelOutputName,
	})
}
