package server

import (
	"context"
	"net/http"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
)

// maxImportBytes bounds the size of an uploaded export.
const maxImportBytes = 16 << 20

// ownSession reports whether session id exists and belongs to the caller.
// Sessions of other users answer as not found.
func (s *Server) ownSession(w http.ResponseWriter, r *http.Request, id int64) (*models.Session, bool) {
	sess, err := s.svc.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if sess.UserID != userIDFromContext(r) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found", Reason: workout.ReasonNotFound})
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err1 := queryInt(r, "limit", 0)
	offset, err2 := queryInt(r, "offset", 0)
	if err1 != nil || err2 != nil {
		badRequest(w, "limit and offset must be integers")
		return
	}
	page, err := s.svc.ListSessions(r.Context(), workout.ListSessionsInput{
		UserID: userIDFromContext(r),
		Status: models.SessionStatus(r.URL.Query().Get("status")),
		Limit:  int(limit),
		Offset: int(offset),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, ok := s.ownSession(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in workout.CreateSessionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.UserID = userIDFromContext(r)
	sess, err := s.svc.CreateSession(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// sessionAction serves one lifecycle transition of a session.
func (s *Server) sessionAction(fn func(ctx context.Context, id int64) (*models.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if _, ok := s.ownSession(w, r, id); !ok {
			return
		}
		sess, err := fn(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func (s *Server) handleSessionFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var fb workout.Feedback
	if !decodeJSON(w, r, &fb) {
		return
	}
	if _, ok := s.ownSession(w, r, id); !ok {
		return
	}
	sess, err := s.svc.RecordSessionFeedback(r.Context(), id, fb)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePlanExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workout.PlanExerciseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, ok := s.ownSession(w, r, id); !ok {
		return
	}
	in.SessionID = id
	e, err := s.svc.PlanExercise(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleSaveCompleted(w http.ResponseWriter, r *http.Request) {
	var in workout.CompletedSessionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.UserID = userIDFromContext(r)
	res, err := s.svc.SaveCompletedSession(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.ExerciseEntry
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, ok := s.ownSession(w, r, in.SessionID); !ok {
		return
	}
	in.ID = id
	e, err := s.svc.SaveExerciseEntry(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workout.CompleteInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.svc.CompleteExerciseEntry(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvaluateProgression(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.svc.EvaluateAndApplyProgression(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workout.CreateSetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ExerciseID = id
	set, err := s.svc.CreateSetRecord(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workout.RecordSetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.SetID = id
	set, err := s.svc.RecordSetResult(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := s.alpha.Ingest(r.Context(), body, userIDFromContext(r))
	if err != nil {
		s.log.Error("alpha import error", "error", err)
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
