package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinovia/contentvault/cmd/contentvault/container"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/common/bootstrap"
)

// lifecycle-worker runs periodic orphan cleanup outside the request
// path, so reclamation keeps happening even when the API is idle
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Setup(ctx, "lifecycle-worker",
		bootstrap.WithDBInitHook(repository.EnsureSchema),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap lifecycle-worker: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	interval := components.Config.Lifecycle.ScanInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	components.Logger.Info("Starting lifecycle worker", "scan_interval", interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runCleanup(ctx, serviceContainer)

	for {
		select {
		case <-ticker.C:
			runCleanup(ctx, serviceContainer)
		case sig := <-sigCh:
			components.Logger.Info("shutting down lifecycle worker", "signal", sig.String())
			cancel()
			return
		}
	}
}

func runCleanup(ctx context.Context, c *container.Container) {
	summary, err := c.LifecycleService.Cleanup(ctx)
	if err != nil {
		c.Components.Logger.Error("cleanup run failed", "error", err)
		return
	}

	c.Components.Logger.Info("cleanup run finished",
		"scanned", summary.Scanned,
		"cleaned", summary.Cleaned,
		"archived", summary.Archived,
		"bytes_reclaimed", summary.BytesReclaimed,
		"errors", len(summary.Errors),
	)
}
