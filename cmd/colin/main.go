package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colinbot/colin/common/environment"
	"github.com/colinbot/colin/common/version"
	"github.com/colinbot/colin/internal/colin/app"
)

func main() {
	fmt.Printf("Colin English Learning Bot\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	colin, err := app.New(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Colin: %v\n", err)
		os.Exit(1)
	}
	defer colin.Stop()

	if err := colin.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Colin: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables.
func loadConfig() (app.Config, error) {
	token, err := environment.RequiredString("BOT_TOKEN")
	if err != nil {
		return app.Config{}, err
	}

	return app.Config{
		Token:           token,
		TelegramBaseURL: environment.StringOr("TELEGRAM_BASE_URL", ""),
		BackendURL:      environment.StringOr("HF_SPACE_URL", ""),
		BackendAPIKey:   environment.StringOr("HF_API_TOKEN", ""),
		CandidatesPath:  environment.StringOr("CANDIDATES_PATH", ""),
		DatabasePath:    environment.StringOr("DATABASE_PATH", "./colin.db"),
		HTTPAddr:        environment.StringOr("HTTP_ADDR", ""),
		PollTimeout:     environment.DurationOr("POLL_TIMEOUT", 30*time.Second),
		AttemptTimeout:  environment.DurationOr("BACKEND_ATTEMPT_TIMEOUT", 6*time.Second),
		RateLimit:       environment.IntOr("BACKEND_RATE_LIMIT", 0),
	}, nil
}
