package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/services"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/logger"
)

// flyover prints the upcoming ISS passes for the machine's public location
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// diagnostics go to stderr so stdout only carries the passes
	appLogger := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	appLogger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := services.NewFlyoverServiceFromConfig(cfg.Upstream, appLogger, nil)

	exitCode := 0
	service.Run(ctx, func(err error, passes []models.PassWindow) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "It didn't work! %v\n", err)
			exitCode = 1
			return
		}
		printPassTimes(os.Stdout, passes, time.Local)
	})

	stop()
	os.Exit(exitCode)
}

func printPassTimes(w io.Writer, passes []models.PassWindow, loc *time.Location) {
	if len(passes) == 0 {
		fmt.Fprintln(w, "No upcoming passes.")
		return
	}
	for _, pass := range passes {
		fmt.Fprintf(w, "Next pass at %s for %d seconds!\n", pass.Rise().In(loc).Format(time.RFC1123), pass.Duration)
	}
}
