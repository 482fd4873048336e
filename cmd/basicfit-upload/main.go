package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "BasicFit server URL (e.g. https://basicfit.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("BASICFIT_API_KEY"), "API key for write requests (default $BASICFIT_API_KEY)")
	stateDir := flag.String("state-dir", "", "directory of the upload state database (default ~/.basicfit-upload)")
	dryRun := flag.Bool("dry-run", false, "parse exports but don't send them to the server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("basicfit-upload", Version)
		return
	}

	log, _, err := logging.New(logging.Params{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: basicfit-upload -server <URL> [-dry-run] <export.csv | dir>...\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Open state database
	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".basicfit-upload")
	}
	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: exports will be parsed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run upload
	stats, err := upload.New(client, state, *dryRun, log).Run(ctx, flag.Args())
	if err != nil {
		log.Error("upload failed", "error", err)
	}
	printStats(stats)
	if err != nil || stats.FilesErrored > 0 {
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:       %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:    %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:     %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:     %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions inserted: %d\n", stats.SessionsInserted)
	fmt.Printf("  Sessions skipped:  %d (already stored)\n", stats.SessionsSkipped)
	fmt.Printf("  Sets inserted:     %d\n", stats.SetsInserted)

	if len(stats.SessionErrors) > 0 {
		fmt.Printf("\n  Sessions not imported:\n")
		for _, e := range stats.SessionErrors {
			fmt.Printf("    - %s\n", e)
		}
	}
	fmt.Println()
}
