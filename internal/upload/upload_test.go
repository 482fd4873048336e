package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Worcesters/basicfit/internal/ingest"
	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportCSV = `"Push · Day 1";"2026-03-02 18:00 h";"45 min"
"1. Chest Press · Machine · 10 reps"
#;KG;REPS;RIR
1;50;10;2
2;50;10;1
`

// fakeServer answers imports with a fixed result and records the headers
// of each request.
type fakeServer struct {
	*httptest.Server
	calls   atomic.Int32
	keys    []string
	apiKeys []string
	status  []int // status per call, 200 once exhausted
}

func newFakeServer(t *testing.T, status ...int) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: status}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(fs.calls.Add(1))
		if r.URL.Path != "/api/v1/import/alpha" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Chest Press") {
			t.Errorf("body does not carry the export")
		}
		fs.keys = append(fs.keys, r.Header.Get("Idempotency-Key"))
		fs.apiKeys = append(fs.apiKeys, r.Header.Get("X-API-Key"))
		if n <= len(fs.status) && fs.status[n-1] != http.StatusOK {
			w.WriteHeader(fs.status[n-1])
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ingest.Result{BatchID: "batch-1", SessionsReceived: 1, SessionsInserted: 1, SetsInserted: 2})
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newTestClient(url string) *Client {
	c := NewClient(url+"/", "secret")
	c.backoff = time.Millisecond
	return c
}

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestSendExportHeaders verifies the API key and idempotency key are sent
// and the import result decoded.
func TestSendExportHeaders(t *testing.T) {
	srv := newFakeServer(t)

	res, err := newTestClient(srv.URL).SendExport(context.Background(), []byte(exportCSV), "alpha-abc")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", res.BatchID)
	assert.Equal(t, 2, res.SetsInserted)
	assert.Equal(t, []string{"alpha-abc"}, srv.keys)
	assert.Equal(t, []string{"secret"}, srv.apiKeys)
}

// TestSendExportRetriesServerErrors verifies 5xx answers are retried with
// the same idempotency key.
func TestSendExportRetriesServerErrors(t *testing.T) {
	srv := newFakeServer(t, http.StatusBadGateway, http.StatusInternalServerError)

	res, err := newTestClient(srv.URL).SendExport(context.Background(), []byte(exportCSV), "alpha-abc")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SessionsInserted)
	assert.EqualValues(t, 3, srv.calls.Load())
	assert.Equal(t, []string{"alpha-abc", "alpha-abc", "alpha-abc"}, srv.keys)
}

// TestSendExportGivesUp verifies the error after the last attempt.
func TestSendExportGivesUp(t *testing.T) {
	srv := newFakeServer(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)

	_, err := newTestClient(srv.URL).SendExport(context.Background(), []byte(exportCSV), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, 3, srv.calls.Load())
}

// TestSendExportClientErrorNotRetried verifies a rejected export is not
// sent again.
func TestSendExportClientErrorNotRetried(t *testing.T) {
	srv := newFakeServer(t, http.StatusBadRequest)

	_, err := newTestClient(srv.URL).SendExport(context.Background(), []byte(exportCSV), "k")
	require.ErrorIs(t, err, errRejected)
	assert.EqualValues(t, 1, srv.calls.Load())
}

// TestStateDB verifies an export counts as uploaded only with the same
// size and hash.
func TestStateDB(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	defer state.Close()

	ok, err := state.IsUploaded("/exports/a.csv", 10, "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, state.MarkUploaded("/exports/a.csv", 10, "h1", "batch"))
	ok, err = state.IsUploaded("/exports/a.csv", 10, "h1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = state.IsUploaded("/exports/a.csv", 12, "h2")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestHashFile verifies the hash changes with the content.
func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a, err := HashFile(writeExport(t, dir, "a.csv", "one"))
	require.NoError(t, err)
	b, err := HashFile(writeExport(t, dir, "b.csv", "two"))
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

// TestRunSkipsUploadedExports verifies a directory is expanded to its CSV
// files and that a second run sends nothing.
func TestRunSkipsUploadedExports(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()
	writeExport(t, dir, "b.csv", exportCSV)
	writeExport(t, dir, "a.csv", strings.Replace(exportCSV, "Day 1", "Day 2", 1))
	writeExport(t, dir, "notes.txt", "not an export")

	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	defer state.Close()
	client := newTestClient(srv.URL)

	stats, err := New(client, state, false, logging.Discard()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesUploaded)
	assert.Equal(t, 2, stats.SessionsInserted)
	assert.Equal(t, 4, stats.SetsInserted)
	assert.EqualValues(t, 2, srv.calls.Load())
	assert.NotEqual(t, srv.keys[0], srv.keys[1])

	stats, err = New(client, state, false, logging.Discard()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Zero(t, stats.FilesUploaded)
	assert.EqualValues(t, 2, srv.calls.Load())
}

// TestRunDryRun verifies exports are parsed but neither sent nor marked.
func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	good := writeExport(t, dir, "good.csv", exportCSV)
	bad := writeExport(t, dir, "bad.csv", "#;KG;REPS;RIR\n1;50;10;2\n")

	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	defer state.Close()

	stats, err := New(nil, state, true, logging.Discard()).Run(context.Background(), []string{good, bad})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Zero(t, stats.FilesUploaded)

	hash, err := HashFile(good)
	require.NoError(t, err)
	abs, err := filepath.Abs(good)
	require.NoError(t, err)
	info, err := os.Stat(good)
	require.NoError(t, err)
	ok, err := state.IsUploaded(abs, info.Size(), hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRunMissingPath verifies an unknown path fails the run.
func TestRunMissingPath(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	defer state.Close()

	_, err = New(nil, state, true, logging.Discard()).Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
}
