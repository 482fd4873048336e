// Package upload sends Alpha Progression exports to a remote BasicFit
// server, remembering which exports were already accepted.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Worcesters/basicfit/internal/ingest/alpha"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsInserted int
	SessionsSkipped  int
	SetsInserted     int
	SessionErrors    []string
}

// Uploader walks export files, checks them against the state DB, and POSTs
// new or changed ones to the BasicFit server.
type Uploader struct {
	client *Client
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads every export named in paths. A directory stands for all
// .csv files directly inside it. A failing file is counted and logged and
// does not stop the others.
func (u *Uploader) Run(ctx context.Context, paths []string) (*Stats, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(abs)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	uploaded, err := u.state.IsUploaded(abs, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}

	if u.dryRun {
		sessions, err := alpha.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		u.log.Info("would upload", "file", abs, "sessions", len(sessions))
		return nil
	}

	// The content hash keys the request, so a retried upload of the same
	// export is answered from the server's idempotency cache.
	result, err := u.client.SendExport(ctx, data, "alpha-"+hash)
	if err != nil {
		return err
	}

	u.stats.SessionsInserted += result.SessionsInserted
	u.stats.SessionsSkipped += result.SessionsSkipped
	u.stats.SetsInserted += result.SetsInserted
	u.stats.SessionErrors = append(u.stats.SessionErrors, result.Errors...)
	if len(result.Errors) > 0 {
		// Leave the export unmarked so the failed sessions are retried on
		// the next run; stored sessions are skipped by the server.
		u.stats.FilesErrored++
		return nil
	}

	if err := u.state.MarkUploaded(abs, info.Size(), hash, result.BatchID); err != nil {
		return fmt.Errorf("marking uploaded: %w", err)
	}
	u.stats.FilesUploaded++
	return nil
}

// expandPaths replaces directories by the sorted .csv files they contain.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var dirFiles []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				dirFiles = append(dirFiles, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(dirFiles)
		files = append(files, dirFiles...)
	}
	return files, nil
}
