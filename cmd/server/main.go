package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cohort-roster-backend/api"
	"cohort-roster-backend/pkg/config"
	"cohort-roster-backend/pkg/database"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	db, err := database.NewDatabase(database.DatabaseConfig{
		UseLocalDB:  cfg.UseLocalDB,
		PostgresDSN: cfg.PostgresDSN,
		Debug:       cfg.Debug,
	})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if pg, ok := db.(*database.PostgresDatabase); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, pg.DB()); err != nil {
			cancel()
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		cancel()

		version, err := database.MigrationVersion(context.Background(), pg.DB())
		if err == nil {
			logger.Info("migrations applied", zap.Int64("version", version))
		}
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.New(cfg, db, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("upload_dir", cfg.UploadDir),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var zapConfig zap.Config

	if env == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.OutputPaths = []string{"stdout"}

	logger, err := zapConfig.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
