package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mercaline/mercabot/internal/analytics"
	"github.com/mercaline/mercabot/internal/bot"
	"github.com/mercaline/mercabot/internal/chat"
	"github.com/mercaline/mercabot/internal/qa"
	"github.com/mercaline/mercabot/internal/storage"
	"github.com/mercaline/mercabot/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize storage
	var registry storage.Registry
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		registry = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		registry, err = storage.NewPostgresStorage(dbConfig)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer registry.Close()

	// Initialize the QA engine and ingest the store documents
	engine := qa.NewOpenAIEngine(cfg.OpenAI.APIKey, qa.Options{
		ChatModel:        cfg.OpenAI.ChatModel,
		EmbeddingModel:   cfg.OpenAI.EmbeddingModel,
		MaxTokens:        cfg.OpenAI.MaxTokens,
		Temperature:      cfg.OpenAI.Temperature,
		TopK:             cfg.QA.TopK,
		QualityThreshold: cfg.QA.QualityThreshold,
		ChunkSize:        cfg.QA.ChunkSize,
		ChunkOverlap:     cfg.QA.ChunkOverlap,
		CacheDir:         cfg.QA.CacheDir,
		RequestTimeout:   time.Duration(cfg.QA.RequestTimeoutSeconds) * time.Second,
	}, logger)

	if paths := collectDocuments(cfg.QA.DocumentsDir, logger); len(paths) > 0 {
		result, err := engine.Ingest(context.Background(), paths)
		if err != nil {
			logger.Error("Document ingestion failed", zap.Error(err))
		} else {
			logger.Info("Document ingestion finished",
				zap.Int("ingested", len(result.Ingested)),
				zap.Int("skipped", len(result.Skipped)),
				zap.Int("failed", len(result.Failed)))
			for _, failure := range result.Failed {
				logger.Warn("Document failed ingestion",
					zap.String("path", failure.Path),
					zap.String("reason", failure.Reason))
			}
		}
	} else {
		logger.Warn("No documents found to ingest",
			zap.String("dir", cfg.QA.DocumentsDir))
	}

	// Initialize the conversation manager
	manager := chat.NewManager(registry, engine, logger)

	// Start the analytics API
	if cfg.Analytics.Password != "" {
		server := analytics.NewServer(registry, cfg.Analytics.Password,
			cfg.Analytics.JWTSecret, cfg.Analytics.TokenTTLMinutes, logger)
		go func() {
			logger.Info("Starting analytics server", zap.String("address", cfg.Analytics.Address))
			if err := server.Listen(cfg.Analytics.Address); err != nil {
				logger.Error("Analytics server stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("Analytics password not set, analytics API disabled")
	}

	// Initialize and start the bot
	b, err := bot.New(cfg.Telegram.Token, manager, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".xlsx": true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

func collectDocuments(dir string, logger *zap.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("Failed to read documents directory",
			zap.Error(err),
			zap.String("dir", dir))
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths
}
