package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"benchmark-server/src/cache"
	"benchmark-server/src/config"
	"benchmark-server/src/data_source/yahoo"
	"benchmark-server/src/helpers"
	"benchmark-server/src/history"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/network"
	"benchmark-server/src/refresh"
	"benchmark-server/src/server"
	"benchmark-server/src/storage"
	"benchmark-server/src/stream"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg, cfg.Name)

	// Proxy autodetection: scan the usual local proxy ports when nothing
	// is configured explicitly
	if cfg.Network.AutoDetectProxy && cfg.Network.Proxy == "" {
		if proxy, found := helpers.DetectLocalProxy(); found {
			appLogger.Info("Detected local proxy %s", proxy)
			cfg.Network.Proxy = proxy
		}
	}

	// 2. Storage
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(cfg.MConfig, appLogger)
	}
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Response cache
	var responseCache interfaces.IResponseCache

	switch cfg.Cache.Type {
	case "redis":
		responseCache, err = cache.NewRedisCache(ctx, cfg.MConfig, appLogger)
		if err != nil {
			appLogger.Critical("Failed to connect redis: %v", err)
		}
	default:
		responseCache = cache.NewMemoryCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}
	defer responseCache.Close()

	// 4. Provider
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
	var provider interfaces.IProviderClient = yahoo.NewYahooProvider(cfg.MConfig, networkManager)

	// 5. Live stream components
	registry := stream.NewSubscriptionRegistry(cfg.BenchmarkSymbols())
	quotes := stream.NewQuoteStore()
	backoff := &stream.FixedBackoff{Delay: time.Duration(cfg.Provider.BackoffSeconds) * time.Second}
	supervisor := stream.NewStreamSupervisor(provider, registry, quotes, backoff, appLogger)

	// 6. History resolver
	resolver := history.NewHistoryResolver(provider, db, responseCache, appLogger)

	// 7. HTTP server + websocket hub
	srv := server.NewAPIServer(cfg, appLogger, quotes, supervisor.Status, registry, supervisor, resolver, provider)
	supervisor.OnTick = srv.Broadcast

	go supervisor.Run(ctx)

	// 8. Background refresh of benchmark history
	if cfg.Refresh.Enabled {
		refresher := refresh.NewRefresher(cfg, resolver, appLogger)
		go refresher.Run(ctx)
	}

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutting down...")
	cancel()
}
