package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListSessions verifies the HTTP client sends the paging params and
// parses the page envelope.
func TestListSessions(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("status"); got != "completed" {
				t.Errorf("status=%q, want completed", got)
			}
			if got := q.Get("limit"); got != "10" {
				t.Errorf("limit=%q, want 10", got)
			}
			if q.Has("offset") {
				t.Errorf("offset sent for zero value")
			}
			writeTestJSON(t, w, workout.SessionPage{
				Sessions: []models.Session{{ID: 7, Name: "Push", Status: models.SessionCompleted}},
				HasMore:  true,
				Limit:    10,
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	page, err := client.ListSessions(context.Background(), workout.ListSessionsInput{
		UserID: 1,
		Status: models.SessionCompleted,
		Limit:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Sessions) != 1 || page.Sessions[0].ID != 7 {
		t.Fatalf("sessions = %+v, want one session with id 7", page.Sessions)
	}
	if !page.HasMore {
		t.Error("has_more = false, want true")
	}
}

// TestGetSession verifies the session ID is placed in the path.
func TestGetSession(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/42": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.Session{ID: 42, UserID: 3, Name: "Legs"})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL + "/")
	sess, err := client.GetSession(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Name != "Legs" || sess.UserID != 3 {
		t.Errorf("session = %+v, want Legs of user 3", sess)
	}
}

// TestGetRecommendation verifies machine and mode IDs are sent as query
// params.
func TestGetRecommendation(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/recommendations": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("machine_id"); got != "5" {
				t.Errorf("machine_id=%q, want 5", got)
			}
			if got := r.URL.Query().Get("mode_id"); got != "2" {
				t.Errorf("mode_id=%q, want 2", got)
			}
			writeTestJSON(t, w, models.Recommendation{MachineID: 5, TrainingModeID: 2, Weight: 62.5, Sets: 4, Reps: 10, RestSeconds: 90})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	rec, err := client.GetRecommendation(context.Background(), 1, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Weight != 62.5 {
		t.Errorf("weight=%v, want 62.5", rec.Weight)
	}
}

// TestCurrentUser verifies the caller ID is read from /me.
func TestCurrentUser(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/me": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, map[string]any{"user_id": 9, "login": "lifter@example.com"})
		},
	})
	defer ts.Close()

	id, err := NewHTTPClient(ts.URL).CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != 9 {
		t.Errorf("user id = %d, want 9", id)
	}
}

// TestCatalogEndpoints verifies machines, modes, trackers and stats decode
// from their flat responses.
func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/machines": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, []models.Machine{models.NewMachine("Leg Press")})
		},
		"/api/v1/modes": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, []models.TrainingMode{{ID: 1, Code: models.ModeStrength}})
		},
		"/api/v1/trackers": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, []models.ProgressionTracker{{ID: 1, CurrentWeight: 80}})
		},
		"/api/v1/stats": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, models.UserStats{CompletedSessions: 12})
		},
	})
	defer ts.Close()

	ctx := context.Background()
	client := NewHTTPClient(ts.URL)

	machines, err := client.ListMachines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(machines) != 1 || machines[0].WeightIncrement != models.DefaultWeightIncrement {
		t.Errorf("machines = %+v", machines)
	}

	modes, err := client.ListTrainingModes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(modes) != 1 || modes[0].Code != models.ModeStrength {
		t.Errorf("modes = %+v", modes)
	}

	trackers, err := client.ListTrackers(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(trackers) != 1 || trackers[0].CurrentWeight != 80 {
		t.Errorf("trackers = %+v", trackers)
	}

	stats, err := client.UserStats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.CompletedSessions != 12 {
		t.Errorf("completed_sessions=%d, want 12", stats.CompletedSessions)
	}
}

// TestHTTPClientReasonErrors verifies API reason codes map back onto the
// service sentinels.
func TestHTTPClientReasonErrors(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/1": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"session not found","reason":"not_found"}`))
		},
		"/api/v1/sessions": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"limit must be between 0 and 100","reason":"validation"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.GetSession(context.Background(), 1)
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	_, err = client.ListSessions(context.Background(), workout.ListSessionsInput{Limit: 500})
	if !errors.Is(err, workout.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/machines": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal error","reason":"internal"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.ListMachines(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if workout.Reason(err) != workout.ReasonInternal {
		t.Errorf("reason = %q, want internal", workout.Reason(err))
	}
}
