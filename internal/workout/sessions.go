package workout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/training"
)

// Session list paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateSessionInput describes a planned session.
type CreateSessionInput struct {
	UserID             int64      `json:"user_id"`
	TrainingModeID     *int64     `json:"training_mode_id,omitempty"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	PlannedDurationMin *int       `json:"planned_duration_min,omitempty"`
}

// CreateSession stores a new session in the planned state.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*models.Session, error) {
	var c checker
	c.check(in.UserID > 0, "user_id is required")
	c.check(strings.TrimSpace(in.Name) != "", "name is required")
	c.check(in.PlannedDurationMin == nil || *in.PlannedDurationMin > 0, "planned_duration_min must be positive")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "create", Resource: "session", Err: err}
	}

	sess := &models.Session{
		UserID:             in.UserID,
		TrainingModeID:     in.TrainingModeID,
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		ScheduledAt:        utcPtr(in.ScheduledAt),
		PlannedDurationMin: in.PlannedDurationMin,
		Status:             models.SessionPlanned,
	}
	err := s.run(ctx, "create", "session", 0, func(ctx context.Context, r storage.Repository) error {
		if _, err := r.GetUser(ctx, in.UserID); err != nil {
			return notFound("user", in.UserID, err)
		}
		if in.TrainingModeID != nil {
			if _, err := r.GetTrainingMode(ctx, *in.TrainingModeID); err != nil {
				return notFound("training mode", *in.TrainingModeID, err)
			}
		}
		return r.InsertSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CounterSessions.WithLabelValues(string(sess.Status)).Inc()
	return sess, nil
}

// GetSession returns a session with its exercise entries and their sets, as
// stored. Aggregates are not recomputed.
func (s *Service) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	var sess *models.Session
	err := s.run(ctx, "get", "session", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		sess, err = r.GetSession(ctx, id, false)
		if err != nil {
			return notFound("session", id, err)
		}
		sess.Exercises, err = loadExercises(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func loadExercises(ctx context.Context, r storage.Repository, sessionID int64) ([]models.ExerciseEntry, error) {
	entries, err := r.ListExercises(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Sets, err = r.ListSets(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ListSessionsInput pages through a user's sessions, newest first.
type ListSessionsInput struct {
	UserID int64                `json:"user_id"`
	Status models.SessionStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// SessionPage is one page of session history.
type SessionPage struct {
	Sessions []models.Session `json:"sessions"`
	HasMore  bool             `json:"has_more"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListSessions returns one page of a user's sessions without their entries.
func (s *Service) ListSessions(ctx context.Context, in ListSessionsInput) (*SessionPage, error) {
	var c checker
	c.check(in.UserID > 0, "user_id is required")
	c.check(in.Status == "" || in.Status.IsValid(), "unknown session status %q", in.Status)
	c.check(in.Limit >= 0 && in.Limit <= MaxPageSize, "limit must be between 0 and %d", MaxPageSize)
	c.check(in.Offset >= 0, "offset must not be negative")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "list", Resource: "session", Err: err}
	}
	if in.Limit == 0 {
		in.Limit = DefaultPageSize
	}

	page := &SessionPage{Limit: in.Limit, Offset: in.Offset}
	err := s.run(ctx, "list", "session", 0, func(ctx context.Context, r storage.Repository) error {
		// One extra row tells whether another page exists.
		rows, err := r.ListSessions(ctx, storage.SessionFilter{
			UserID: in.UserID,
			Status: in.Status,
			Limit:  in.Limit + 1,
			Offset: in.Offset,
		})
		if err != nil {
			return err
		}
		if len(rows) > in.Limit {
			page.HasMore = true
			rows = rows[:in.Limit]
		}
		page.Sessions = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	if page.Sessions == nil {
		page.Sessions = []models.Session{}
	}
	return page, nil
}

// StartSession moves a planned session to in-progress and stamps its start.
func (s *Service) StartSession(ctx context.Context, id int64) (*models.Session, error) {
	return s.transition(ctx, id, "start", func(sess *models.Session) {
		now := s.stamp()
		sess.StartedAt = &now
	})
}

// FinishSession stamps the end time, completes the session and recomputes
// its aggregates from the current exercise entries, all in one transaction.
func (s *Service) FinishSession(ctx context.Context, id int64) (*models.Session, error) {
	var sess *models.Session
	err := s.run(ctx, "finish", "session", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		sess, err = r.GetSession(ctx, id, true)
		if err != nil {
			return notFound("session", id, err)
		}
		next, ok := sess.Status.Transition("finish")
		if !ok {
			return conflictf("cannot finish a %s session", sess.Status)
		}
		end := s.stamp()
		sess.EndedAt = &end
		sess.Status = next
		return s.recomputeAndSave(ctx, r, sess)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CounterSessions.WithLabelValues(string(sess.Status)).Inc()
	s.log.Info("session finished", "session_id", id, "exercises", sess.ExerciseCount, "tonnage", sess.TonnageTotal)
	return sess, nil
}

// recomputeAndSave sums the session's exercise entries into its aggregates
// and persists the session. A failure to load the entries is referential.
func (s *Service) recomputeAndSave(ctx context.Context, r storage.Repository, sess *models.Session) error {
	entries, err := r.ListExercises(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("%w: loading exercise entries of session %d: %w", ErrReferential, sess.ID, err)
	}
	training.ApplySessionAggregates(sess, training.AggregateSession(entries))
	return r.UpdateSession(ctx, sess)
}

// CancelSession cancels a planned, in-progress or suspended session.
func (s *Service) CancelSession(ctx context.Context, id int64) (*models.Session, error) {
	return s.transition(ctx, id, "cancel", nil)
}

// SuspendSession pauses an in-progress session.
func (s *Service) SuspendSession(ctx context.Context, id int64) (*models.Session, error) {
	return s.transition(ctx, id, "suspend", nil)
}

// ResumeSession returns a suspended session to in-progress.
func (s *Service) ResumeSession(ctx context.Context, id int64) (*models.Session, error) {
	return s.transition(ctx, id, "resume", nil)
}

// transition applies a status change that does not touch aggregates.
func (s *Service) transition(ctx context.Context, id int64, action string, mutate func(*models.Session)) (*models.Session, error) {
	var sess *models.Session
	err := s.run(ctx, action, "session", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		sess, err = r.GetSession(ctx, id, true)
		if err != nil {
			return notFound("session", id, err)
		}
		next, ok := sess.Status.Transition(action)
		if !ok {
			return conflictf("cannot %s a %s session", action, sess.Status)
		}
		sess.Status = next
		if mutate != nil {
			mutate(sess)
		}
		return r.UpdateSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CounterSessions.WithLabelValues(string(sess.Status)).Inc()
	return sess, nil
}

// Feedback holds the subjective and physiological notes of a session. Nil
// fields are left unchanged.
type Feedback struct {
	PerceivedEffort  *int     `json:"perceived_effort,omitempty"`
	Difficulty       *int     `json:"difficulty,omitempty"`
	BodyWeight       *float64 `json:"body_weight,omitempty"`
	RestingHeartRate *int     `json:"resting_heart_rate,omitempty"`
	PeakHeartRate    *int     `json:"peak_heart_rate,omitempty"`
	Comment          *string  `json:"comment,omitempty"`
}

// RecordSessionFeedback stores feedback on a session in any state.
func (s *Service) RecordSessionFeedback(ctx context.Context, id int64, fb Feedback) (*models.Session, error) {
	var c checker
	c.check(effortOK(fb.PerceivedEffort), "perceived_effort must be between 1 and 10")
	c.check(effortOK(fb.Difficulty), "difficulty must be between 1 and 10")
	c.check(positiveOrNil(fb.BodyWeight), "body_weight must be positive")
	c.check(fb.RestingHeartRate == nil || *fb.RestingHeartRate > 0, "resting_heart_rate must be positive")
	c.check(fb.PeakHeartRate == nil || *fb.PeakHeartRate > 0, "peak_heart_rate must be positive")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "feedback", Resource: "session", ID: id, Err: err}
	}

	var sess *models.Session
	err := s.run(ctx, "feedback", "session", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		sess, err = r.GetSession(ctx, id, true)
		if err != nil {
			return notFound("session", id, err)
		}
		if fb.PerceivedEffort != nil {
			sess.PerceivedEffort = fb.PerceivedEffort
		}
		if fb.Difficulty != nil {
			sess.Difficulty = fb.Difficulty
		}
		if fb.BodyWeight != nil {
			sess.BodyWeight = fb.BodyWeight
		}
		if fb.RestingHeartRate != nil {
			sess.RestingHeartRate = fb.RestingHeartRate
		}
		if fb.PeakHeartRate != nil {
			sess.PeakHeartRate = fb.PeakHeartRate
		}
		if fb.Comment != nil {
			sess.Comment = *fb.Comment
		}
		if sess.RestingHeartRate != nil && sess.PeakHeartRate != nil && *sess.PeakHeartRate < *sess.RestingHeartRate {
			return validationf("peak_heart_rate must not be below resting_heart_rate")
		}
		return r.UpdateSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
