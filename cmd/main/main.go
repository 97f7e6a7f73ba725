package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mse-harvester/src/config"
	"mse-harvester/src/data_source/mse"
	"mse-harvester/src/engine"
	"mse-harvester/src/interfaces"
	"mse-harvester/src/logger"
	"mse-harvester/src/network"
	"mse-harvester/src/server"
	"mse-harvester/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single sync pass and exit")
	resetPublishers := flag.Bool("reset-publishers", false, "destructive: wipe and rebuild the publisher registry from discovery, then exit")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Setup storage backend
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// Setup collaborators
	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
	var source interfaces.IDataSource = mse.NewMSESource(cfg.MConfig, netMgr)
	watermarks := storage.NewWatermarkFile(cfg.Storage.WatermarkPath, appLogger)

	eng := engine.NewEngine(cfg.MConfig, db, source, watermarks, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Administrative rebuild: discovery + destructive registry replace.
	if *resetPublishers {
		codes, err := source.DiscoverPublishers(ctx)
		if err != nil {
			appLogger.Critical("Discovery failed: %v", err)
		}
		if len(codes) == 0 {
			appLogger.Critical("Discovery returned no publishers; registry left untouched")
		}
		if err := db.ReplacePublishers(codes); err != nil {
			appLogger.Critical("Failed to replace publishers: %v", err)
		}
		appLogger.Info("Publisher registry rebuilt: %d codes", len(codes))
		return
	}

	// Status server
	srv := server.NewStatusServer(cfg.MConfig, eng, appLogger)
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Status server stopped: %v", err)
		}
	}()

	runPass := func() {
		codes, err := source.DiscoverPublishers(ctx)
		if err != nil {
			appLogger.Warning("Discovery failed: %v", err)
		}

		if len(codes) > 0 {
			if err := db.RegisterPublishers(codes); err != nil {
				appLogger.Warning("Failed to register discovered publishers: %v", err)
			}
		} else {
			// Transient discovery failure: fall back to the stored registry.
			codes, err = db.ListPublishers()
			if err != nil {
				appLogger.Error("Failed to list stored publishers: %v", err)
				return
			}
			if len(codes) == 0 {
				appLogger.Info("No publishers known; nothing to sync")
				return
			}
			appLogger.Info("Discovery empty, using %d stored publishers", len(codes))
		}

		eng.Run(ctx, codes)
	}

	runPass()
	if *once {
		return
	}

	interval := time.Duration(cfg.Source.UpdateIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			appLogger.Info("Shutting down")
			return
		case <-ticker.C:
			runPass()
		}
	}
}
