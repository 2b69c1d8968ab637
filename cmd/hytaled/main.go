// Package main provides the entry point for the Hytale Companion worker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/graaaaa/hytale-companion/internal/appinfo"
	"github.com/graaaaa/hytale-companion/internal/config"
	"github.com/graaaaa/hytale-companion/internal/journal"
	"github.com/graaaaa/hytale-companion/internal/procwatch"
	"github.com/graaaaa/hytale-companion/internal/prune"
	"github.com/graaaaa/hytale-companion/internal/reconcile"
	"github.com/graaaaa/hytale-companion/internal/sample"
	"github.com/graaaaa/hytale-companion/internal/singleinstance"
	"github.com/graaaaa/hytale-companion/internal/store"
	"github.com/graaaaa/hytale-companion/internal/version"
	"github.com/graaaaa/hytale-companion/internal/worker"
)

func main() {
	// 1. Parse flags (flags can override config file and env)
	configPath := flag.String("config", "", "path to YAML config file")
	unitFlag := flag.String("unit", "", "systemd unit of the game server (overrides config)")
	flag.Parse()

	// 2. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *unitFlag != "" {
		cfg.Unit = *unitFlag
	}

	// 3. Ensure data directory and single instance
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	release, ok, err := singleinstance.AcquireLock(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to acquire lock: %v", err)
	}
	if !ok {
		log.Println("Another instance is already running")
		os.Exit(1)
	}
	defer release()

	// 4. Open SQLite store (runs schema migration; fatal on failure)
	dbPath := filepath.Join(cfg.DataDir, appinfo.DatabaseFileName)
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Starting %s worker v%s (unit=%s, db=%s)",
		appinfo.AppName, version.String(), cfg.Unit, dbPath)

	// 5. Build components
	logs := journal.NewClient(cfg.Unit, cfg.QueryTimeout)
	backfillLogs := journal.NewClient(cfg.Unit, cfg.BackfillTimeout)
	resolver := &procwatch.SystemdResolver{
		Unit:         cfg.Unit,
		ProcessMatch: cfg.ProcessMatch,
	}

	reconciler := reconcile.New(logs, db, cfg.Lookback)
	backfiller := reconcile.New(backfillLogs, db, cfg.Lookback)
	sampler := sample.New(logs, resolver, procwatch.ProcfsProber{}, db,
		sample.WithTailLines(cfg.MetricTailLines))
	pruner := prune.New(db, cfg.PerfRetention, cfg.EventRetention)

	// 6. Shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. One-time startup backfill before steady-state ticks
	if err := backfiller.Backfill(ctx, cfg.BackfillWindow); err != nil {
		log.Fatalf("Startup backfill failed: %v", err)
	}

	// 8. Run the scheduler until a stop is requested
	w := worker.New([]worker.Task{
		{Name: "metrics", Interval: cfg.PerfInterval, Run: sampler.Tick},
		{Name: "players", Interval: cfg.PlayerInterval, Run: reconciler.Tick},
		{Name: "cleanup", Interval: cfg.CleanupInterval, Run: pruner.Tick},
	}, worker.WithTransitionHook(notifySystemd))

	w.Run(ctx)

	log.Println("Shutdown complete")
}

// notifySystemd reports lifecycle transitions to systemd when running
// under Type=notify. Errors are ignored; outside systemd this is a no-op.
func notifySystemd(s worker.State) {
	switch s {
	case worker.StateRunning:
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	case worker.StateShuttingDown:
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	}
}
