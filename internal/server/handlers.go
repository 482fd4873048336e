package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string   `json:"error"`
	Reason   string   `json:"reason,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto its HTTP status. Internal failures
// are logged and answered without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reason := workout.Reason(err)
	body := errorBody{Error: err.Error(), Reason: reason}
	status := http.StatusInternalServerError
	switch reason {
	case workout.ReasonValidation:
		status = http.StatusBadRequest
		body.Problems = workout.Problems(err)
	case workout.ReasonConflict:
		status = http.StatusConflict
	case workout.ReasonNotFound:
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "path", r.URL.Path, "request_id", requestIDFromContext(r.Context()), "error", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Reason: workout.ReasonValidation})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, name string, def int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type meResponse struct {
	UserInfo
	Profile *models.User `json:"profile"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info := userInfoFromContext(r)
	u, err := s.svc.GetUser(r.Context(), info.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserInfo: info, Profile: u})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in workout.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.svc.UpdateProfile(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.UserStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDataStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.DataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	modes, err := s.svc.ListTrainingModes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modes)
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.svc.ListMachines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, machines)
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := s.svc.GetMachine(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var in workout.MachineInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := s.svc.CreateMachine(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	variants, err := s.svc.ListVariants(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variants)
}

func (s *Server) handleCreateVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workout.VariantInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.MachineID = id
	v, err := s.svc.CreateVariant(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListTrackers(w http.ResponseWriter, r *http.Request) {
	trackers, err := s.svc.ListTrackers(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackers)
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	machineID, err1 := queryInt(r, "machine_id", 0)
	modeID, err2 := queryInt(r, "mode_id", 0)
	if err := multierr.Combine(err1, err2); err != nil {
		badRequest(w, err.Error())
		return
	}
	rec, err := s.svc.GetRecommendation(r.Context(), userIDFromContext(r), machineID, modeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
