package main

import (
	"context"
	"flag"
	"fmt"

	"mt5-risk-sync-go/internal/common"
	"mt5-risk-sync-go/internal/config"
	"mt5-risk-sync-go/internal/models"

	"go.uber.org/zap"
)

func printViolation(violation models.Violation, isLast bool) {
	symbol := common.BoxPrefix(isLast)

	fmt.Printf("%s %-10d %-16s %-10s threshold: %12s  equity: %12s  delta: %10s  at: %s\n",
		symbol,
		violation.Login,
		violation.ViolationType,
		violation.RuleSource,
		violation.Threshold.String(),
		violation.Equity.String(),
		violation.Delta.String(),
		violation.CreatedAt.Format("2006-01-02 15:04:05"))
}

func main() {
	loginFlag := flag.Int64("login", 0, "Filter by specific MT5 login (optional)")
	limitFlag := flag.Int("limit", 50, "Maximum number of violations to show")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var violations []models.Violation
	if *loginFlag != 0 {
		violations, err = dbService.GetViolations(ctx, *loginFlag)
	} else {
		violations, err = dbService.GetAllViolations(ctx, *limitFlag)
	}
	if err != nil {
		logger.Fatal("Failed to load violations", zap.Error(err))
	}

	common.PrintHeader("RISK VIOLATION REPORT", common.DefaultWidth)

	if len(violations) == 0 {
		fmt.Println("No violations recorded.")
	}
	for i, violation := range violations {
		printViolation(violation, i == len(violations)-1)
	}

	summary := fmt.Sprintf("SUMMARY: %d violations", len(violations))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Violation report completed", zap.Int("violations", len(violations)))
}
