package common

import (
	"context"
	"log"
	"strings"

	"mt5-risk-sync-go/internal/bridge"
	"mt5-risk-sync-go/internal/checkpoint"
	"mt5-risk-sync-go/internal/database"
	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/risk"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	BridgeService *bridge.Service
	Checkpoint    checkpoint.Store
	Rules         *risk.RuleSet
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bridgeService, err := bridge.NewService(cfg.Bridge)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	checkpointStore, err := initializeCheckpoint(ctx, cfg.Cache)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	zap.L().Info("Loading drawdown rules", zap.String("file", cfg.Sync.RulesFile))
	rules, err := risk.LoadRuleSet(cfg.Sync.RulesFile)
	if err != nil {
		checkpointStore.Close()
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:     dbService,
		BridgeService: bridgeService,
		Checkpoint:    checkpointStore,
		Rules:         rules,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like listing accounts or breaches.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func initializeCheckpoint(ctx context.Context, cfg models.CacheConfig) (checkpoint.Store, error) {
	if cfg.Addr == "" {
		zap.L().Info("No Redis address configured, using in-memory checkpoint store")
		return checkpoint.NewMemoryStore(), nil
	}
	return checkpoint.NewRedisStore(ctx, cfg)
}

func (cs *Services) Close() {
	if cs.Checkpoint != nil {
		cs.Checkpoint.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
