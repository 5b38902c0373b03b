package main

import (
	"context"
	"flag"
	"fmt"

	"mt5-risk-sync-go/internal/common"
	"mt5-risk-sync-go/internal/config"
	"mt5-risk-sync-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	loginFlag := flag.Int64("login", 0, "MT5 login for a new challenge account (optional)")
	userFlag := flag.String("user", "", "User id owning the new account")
	groupFlag := flag.String("group", "demo\\prime", "MT5 group of the new account")
	typeFlag := flag.String("type", "prime-100k", "Challenge type of the new account")
	balanceFlag := flag.String("balance", "100000", "Initial balance of the new account")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Opening the database runs schema initialization, and seeds demo
	// accounts when SEED_DEMO_ACCOUNTS is set.
	logger.Info("Initializing database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if *loginFlag == 0 {
		fmt.Println("Schema initialized.")
		fmt.Println("Pass -login (with -user, -group, -type, -balance) to create a challenge account.")
		return
	}

	if *userFlag == "" {
		logger.Fatal("Missing -user for account creation")
	}

	initialBalance, err := decimal.NewFromString(*balanceFlag)
	if err != nil || !initialBalance.IsPositive() {
		logger.Fatal("Invalid -balance, must be a positive number", zap.String("balance", *balanceFlag))
	}

	account, err := dbService.CreateAccount(ctx, store.CreateAccountParams{
		UserId:         *userFlag,
		Login:          *loginFlag,
		Group:          *groupFlag,
		ChallengeType:  *typeFlag,
		InitialBalance: initialBalance,
	})
	if err != nil {
		logger.Fatal("Failed to create account", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:      %s\n", account.Id)
	fmt.Printf("Login:   %d\n", account.Login)
	fmt.Printf("Group:   %s\n", account.Group)
	fmt.Printf("Type:    %s\n", account.ChallengeType)
	fmt.Printf("Balance: %s\n", account.InitialBalance.String())
	common.PrintSeparator("=", common.DefaultWidth)

	logger.Info("Account created successfully",
		zap.String("id", account.Id),
		zap.Int64("login", account.Login))
}
