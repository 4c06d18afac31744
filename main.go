package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github/itish2003/caseqa/config"
	"github/itish2003/caseqa/controller"
	"github/itish2003/caseqa/logger"
	"github/itish2003/caseqa/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	for _, key := range cfg.MissingKeys() {
		log.Warn("Configuration value is not set", zap.String("key", key))
	}

	locator, closeLocator, err := newDocumentLocator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocator()

	generator, err := services.NewVertexGenerator(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		log.Error("Gemini client unavailable, every answer will fail", zap.Error(err))
	} else {
		log.Info("Connected to Gemini on Vertex AI",
			zap.String("location", cfg.Location),
			zap.String("model", cfg.GeminiModel),
		)
	}

	answerService := services.NewAnswerService(locator, generator, cfg.GeminiModel, cfg.PromptTemplate, log)
	answerController := controller.NewAnswerController(answerService, log)

	gin.SetMode(gin.ReleaseMode)
	router := controller.NewRouter(answerController, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// newDocumentLocator connects to the configured store. The returned func
// releases the store client.
func newDocumentLocator(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.DocumentLocator, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := services.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using PostgreSQL document store", zap.String("table", cfg.Dataset+"."+cfg.Table))
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close postgres pool", zap.Error(err))
			}
		}
		return services.NewPostgresLocator(db, cfg.Dataset+"."+cfg.Table, cfg.LookupStrict, log), closeDB, nil

	case config.BackendBigQuery:
		projectID := cfg.ProjectID
		if projectID == "" {
			projectID = bigquery.DetectProjectID
		}
		client, err := bigquery.NewClient(ctx, projectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create bigquery client: %w", err)
		}
		log.Info("Using BigQuery document store", zap.String("table", cfg.TableRef()))
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Warn("Failed to close bigquery client", zap.Error(err))
			}
		}
		return services.NewBigQueryLocator(client, cfg.TableRef(), cfg.LookupStrict, log), closeClient, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
