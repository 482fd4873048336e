package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Worcesters/basicfit/internal/config"
	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/mcp"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/workout"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remote := flag.String("remote", "", "base URL of a BasicFit server, e.g. http://basicfit (remote mode)")
	login := flag.String("user", "local", "login of the user to act as (local mode)")
	flag.Parse()

	// stdout carries the MCP protocol.
	log, _, err := logging.New(logging.Params{Level: "info", Stdout: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	var (
		ds     mcp.DataSource
		userID int64
	)

	if *remote != "" {
		client := mcp.NewHTTPClient(*remote)
		userID, err = client.CurrentUser(ctx)
		if err != nil {
			log.Error("failed to reach server", "remote", *remote, "error", err)
			os.Exit(1)
		}
		ds = client
		log.Info("remote mode", "remote", *remote, "user_id", userID)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		dialect := storage.Dialect(cfg.Database.Driver)
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dialect, dsn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}

		db, err := storage.Open(ctx, storage.Options{Dialect: dialect, DSN: dsn})
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		svc := workout.New(db, log,
			workout.WithProgressionDefaults(cfg.Progression.SuccessThreshold, cfg.Progression.AutoIncrementEnabled()),
		)
		userID, err = svc.GetOrCreateUser(ctx, *login, *login)
		if err != nil {
			log.Error("failed to resolve user", "login", *login, "error", err)
			os.Exit(1)
		}
		ds = svc
		log.Info("local mode", "driver", dialect, "user_id", userID)
	}

	if err := mcp.ServeStdio(mcp.New(ds, Version, log), userID); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
