package main

import (
	"fmt"
	"os"

	"github.com/ayo6706/profitwave/internal/config"
	"github.com/ayo6706/profitwave/internal/migrations"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	dbURL, err := config.LoadDatabaseURL()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	switch direction {
	case "up":
		err = migrations.Up(dbURL)
	case "down":
		err = migrations.Down(dbURL)
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down]\n")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration failed", zap.String("direction", direction), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migration finished", zap.String("direction", direction))
}
