package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"query-server/confs"
	"query-server/db"
	"query-server/repositories"
	"query-server/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	// guest data always lives in the local SQLite file
	local, err := db.ConnectLocal(cfg)
	if err != nil {
		log.Fatalf("Failed to open local DB: %v", err)
	}
	defer db.Close(local)

	var remoteStore *repositories.Store
	if cfg.Remote.Configured() {
		remote, err := db.ConnectRemote(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to remote DB: %v", err)
		}
		defer db.Close(remote)
		remoteStore = repositories.NewStore(remote)
	} else {
		slog.Warn("remote database not configured, serving guest mode only", "source", "main")
	}

	router := repositories.NewRouter(repositories.NewStore(local), remoteStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run server
	srv := server.NewServer(cfg, router)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server stopped", "source", "main", "error", err)
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
