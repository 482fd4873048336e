package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Worcesters/basicfit/internal/config"
	"github.com/Worcesters/basicfit/internal/ingest"
	"github.com/Worcesters/basicfit/internal/ingest/alpha"
	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/workout"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	filePath := flag.String("file", "", "path to an Alpha Progression CSV export (required)")
	login := flag.String("user", "local", "login of the user the sessions belong to")
	mode := flag.String("mode", "", "training mode of the imported sessions; trackers are updated when set")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing to the database")
	flag.Parse()

	log, _, err := logging.New(logging.Params{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *filePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: basicfit-import -config config.yaml -file export.csv [-user login] [-mode strength] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *mode != "" {
		if _, ok := models.NormalizeModeCode(*mode); !ok {
			log.Error("unknown training mode", "mode", *mode)
			os.Exit(1)
		}
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Error("failed to open export", "path", *filePath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
		sessions, err := alpha.Parse(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		printParsed(log, sessions)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dialect := storage.Dialect(cfg.Database.Driver)
	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dialect, dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	// Connect database
	db, err := storage.Open(ctx, storage.Options{Dialect: dialect, DSN: dsn})
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	svc := workout.New(db, log,
		workout.WithProgressionDefaults(cfg.Progression.SuccessThreshold, cfg.Progression.AutoIncrementEnabled()),
	)
	userID, err := svc.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	// Run import
	result, err := alpha.NewProvider(svc, log, *mode).Ingest(ctx, f, userID)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printResult(log, result)
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
	log.Info("import complete")
}

func printParsed(log *slog.Logger, sessions []alpha.Session) {
	var exercises, sets, warmups int
	for _, s := range sessions {
		exercises += len(s.Exercises)
		for _, e := range s.Exercises {
			for _, set := range e.Sets {
				if set.IsWarmup {
					warmups++
				} else {
					sets++
				}
			}
		}
	}
	log.Info("parsed export",
		"sessions", len(sessions),
		"exercises", exercises,
		"working_sets", sets,
		"warmups", warmups,
	)
}

func printResult(log *slog.Logger, result *ingest.Result) {
	log.Info("import stats",
		"batch_id", result.BatchID,
		"sessions_received", result.SessionsReceived,
		"sessions_inserted", result.SessionsInserted,
		"sessions_skipped", result.SessionsSkipped,
		"exercises_inserted", result.ExercisesInserted,
		"sets_received", result.SetsReceived,
		"sets_inserted", result.SetsInserted,
		"warmups_skipped", result.WarmupsSkipped,
		"progressions_applied", result.ProgressionsApplied,
	)
	for _, e := range result.Errors {
		log.Warn("session not imported", "error", e)
	}
}
