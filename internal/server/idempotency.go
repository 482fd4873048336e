package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Worcesters/basicfit/internal/idempotency"
	"github.com/Worcesters/basicfit/internal/telemetry/metrics"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255

	// maxReservation bounds how long a crashed request keeps its key.
	maxReservation = 5 * time.Minute
)

// Idempotency answers a write carrying an Idempotency-Key header with the
// response recorded for the first request under that key. Keys are scoped
// to the caller, method and path. The key is reserved while the first
// request runs; a concurrent request with the same key gets 409. Server
// errors are not recorded so the client can retry them.
func Idempotency(store idempotency.Store, ttl time.Duration, m *metrics.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	reserveTTL := min(ttl, maxReservation)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyKeyHeader)
			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "idempotency key too long", Reason: "validation"})
				return
			}
			scoped := fmt.Sprintf("%d:%s:%s:%s", userIDFromContext(r), r.Method, r.URL.Path, key)
			ctx := r.Context()

			resp, found, err := store.Get(ctx, scoped)
			if err != nil {
				log.Warn("idempotency lookup failed", "error", err)
			}
			if found && resp.Pending() {
				writeInFlight(w)
				return
			}
			if found {
				m.CounterIdempotentReplays.Inc()
				for k, vs := range resp.Header {
					for _, v := range vs {
						w.Header().Add(k, v)
					}
				}
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(resp.Status)
				_, _ = w.Write(resp.Body)
				return
			}

			reserved, err := store.Reserve(ctx, scoped, reserveTTL)
			switch {
			case err != nil:
				// Store unavailable: serve without the guarantee.
				log.Warn("idempotency reservation failed", "error", err)
			case !reserved:
				writeInFlight(w)
				return
			}

			recorded := false
			if reserved {
				defer func() {
					if recorded {
						return
					}
					if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
						log.Warn("idempotency release failed", "error", err)
					}
				}()
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= http.StatusInternalServerError {
				return
			}
			header := http.Header{}
			if ct := w.Header().Get("Content-Type"); ct != "" {
				header.Set("Content-Type", ct)
			}
			err = store.Put(context.WithoutCancel(ctx), scoped, idempotency.Response{
				Status: rec.status,
				Header: header,
				Body:   rec.body.Bytes(),
			}, ttl)
			if err != nil {
				log.Warn("idempotency store failed", "error", err)
				return
			}
			recorded = true
		})
	}
}

func writeInFlight(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, errorBody{Error: "a request with this idempotency key is in progress", Reason: "conflict"})
}

// recordingWriter copies the response body while writing it through.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
