package workout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/training"
)

// CompletedSet is one performed set of a free-form session. A zero
// PlannedReps counts the set as planned at its performed reps, and at
// least one.
type CompletedSet struct {
	Reps            int     `json:"reps"`
	Weight          float64 `json:"weight"`
	PlannedReps     int     `json:"planned_reps,omitempty"`
	RestSec         *int    `json:"rest_sec,omitempty"`
	PerceivedEffort *int    `json:"perceived_effort,omitempty"`
	Comment         string  `json:"comment,omitempty"`
}

// CompletedExerciseInput is one exercise of a free-form session. The
// machine is taken by ID or else matched by name, and created with catalog
// defaults when no machine matches.
type CompletedExerciseInput struct {
	MachineID       int64          `json:"machine_id,omitempty"`
	MachineName     string         `json:"machine_name,omitempty"`
	DurationSec     *int           `json:"duration_sec,omitempty"`
	PerceivedEffort *int           `json:"perceived_effort,omitempty"`
	Comment         string         `json:"comment,omitempty"`
	Sets            []CompletedSet `json:"sets"`
}

// CompletedSessionInput describes a finished workout recorded after the
// fact. ModeCode, when set, selects the training mode and enables tracker
// updates for every exercise.
type CompletedSessionInput struct {
	UserID          int64                    `json:"user_id"`
	Name            string                   `json:"name"`
	ModeCode        string                   `json:"mode,omitempty"`
	StartedAt       time.Time                `json:"started_at"`
	EndedAt         *time.Time               `json:"ended_at,omitempty"`
	PerceivedEffort *int                     `json:"perceived_effort,omitempty"`
	BodyWeight      *float64                 `json:"body_weight,omitempty"`
	Comment         string                   `json:"comment,omitempty"`
	Exercises       []CompletedExerciseInput `json:"exercises"`
	// SkipExisting returns an already stored session with the same name
	// and start instead of saving a second copy.
	SkipExisting bool `json:"-"`
}

// CompletedSessionResult is the stored session with its entries and sets,
// and the progression outcome of each entry in order when a mode was given.
type CompletedSessionResult struct {
	Session      *models.Session            `json:"session"`
	Progressions []models.ProgressionResult `json:"progressions,omitempty"`
	Skipped      bool                       `json:"skipped,omitempty"`
}

func validateCompleted(in CompletedSessionInput) error {
	var c checker
	c.check(in.UserID > 0, "user_id is required")
	c.check(strings.TrimSpace(in.Name) != "", "name is required")
	c.check(!in.StartedAt.IsZero(), "started_at is required")
	c.check(in.EndedAt == nil || !in.EndedAt.Before(in.StartedAt), "ended_at must not be before started_at")
	c.check(effortOK(in.PerceivedEffort), "perceived_effort must be between 1 and 10")
	c.check(positiveOrNil(in.BodyWeight), "body_weight must be positive")
	if in.ModeCode != "" {
		_, ok := models.NormalizeModeCode(in.ModeCode)
		c.check(ok, "unknown training mode %q", in.ModeCode)
	}
	c.check(len(in.Exercises) > 0, "at least one exercise is required")
	for i, ex := range in.Exercises {
		c.check(ex.MachineID > 0 || strings.TrimSpace(ex.MachineName) != "", "exercise %d: machine_id or machine_name is required", i+1)
		c.check(len(ex.Sets) > 0, "exercise %d: at least one set is required", i+1)
		c.check(ex.DurationSec == nil || *ex.DurationSec >= 0, "exercise %d: duration_sec must not be negative", i+1)
		c.check(effortOK(ex.PerceivedEffort), "exercise %d: perceived_effort must be between 1 and 10", i+1)
		for j, set := range ex.Sets {
			c.check(set.Reps >= 0, "exercise %d set %d: reps must not be negative", i+1, j+1)
			c.check(set.Weight >= 0, "exercise %d set %d: weight must not be negative", i+1, j+1)
			c.check(set.PlannedReps >= 0, "exercise %d set %d: planned_reps must not be negative", i+1, j+1)
			c.check(set.RestSec == nil || *set.RestSec >= 0, "exercise %d set %d: rest_sec must not be negative", i+1, j+1)
			c.check(effortOK(set.PerceivedEffort), "exercise %d set %d: perceived_effort must be between 1 and 10", i+1, j+1)
		}
	}
	return c.err()
}

// SaveCompletedSession stores a finished workout with its exercise entries
// and set records in one transaction. Entries go through the regular save
// path, the session through the finish recomputation.
func (s *Service) SaveCompletedSession(ctx context.Context, in CompletedSessionInput) (*CompletedSessionResult, error) {
	if err := validateCompleted(in); err != nil {
		return nil, &OpError{Op: "save completed", Resource: "session", Err: err}
	}

	out := &CompletedSessionResult{}
	err := s.run(ctx, "save completed", "session", 0, func(ctx context.Context, r storage.Repository) error {
		if _, err := r.GetUser(ctx, in.UserID); err != nil {
			return notFound("user", in.UserID, err)
		}
		name := strings.TrimSpace(in.Name)
		start := in.StartedAt.UTC().Truncate(time.Microsecond)

		if in.SkipExisting {
			existing, err := r.FindSessionByStart(ctx, in.UserID, name, start)
			if err == nil {
				out.Session = existing
				out.Skipped = true
				return nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}

		sess := &models.Session{
			UserID:          in.UserID,
			Name:            name,
			StartedAt:       &start,
			Status:          models.SessionInProgress,
			PerceivedEffort: in.PerceivedEffort,
			BodyWeight:      in.BodyWeight,
			Comment:         in.Comment,
		}
		if in.ModeCode != "" {
			code, _ := models.NormalizeModeCode(in.ModeCode)
			mode, err := r.GetTrainingModeByCode(ctx, code)
			if err != nil {
				return notFound("training mode", 0, err)
			}
			sess.TrainingModeID = &mode.ID
		}
		if err := r.InsertSession(ctx, sess); err != nil {
			return err
		}

		for i, ex := range in.Exercises {
			e, sets, err := s.saveCompletedExercise(ctx, r, sess, i+1, ex)
			if err != nil {
				return err
			}
			if sess.TrainingModeID != nil {
				res, err := s.evaluate(ctx, r, sess, e, sets)
				if err != nil {
					return err
				}
				out.Progressions = append(out.Progressions, *res)
			}
		}

		end := start
		if in.EndedAt != nil {
			end = in.EndedAt.UTC().Truncate(time.Microsecond)
		}
		sess.EndedAt = &end
		sess.Status = models.SessionCompleted
		if err := s.recomputeAndSave(ctx, r, sess); err != nil {
			return err
		}
		exercises, err := loadExercises(ctx, r, sess.ID)
		if err != nil {
			return err
		}
		sess.Exercises = exercises
		out.Session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Skipped {
		s.metrics.CounterImportedSessions.Inc()
		s.metrics.CounterSessions.WithLabelValues(string(models.SessionCompleted)).Inc()
		for i := range out.Progressions {
			s.observeProgression(&out.Progressions[i])
		}
	}
	return out, nil
}

func (s *Service) saveCompletedExercise(ctx context.Context, r storage.Repository, sess *models.Session, position int, in CompletedExerciseInput) (*models.ExerciseEntry, []models.SetRecord, error) {
	machine, err := s.resolveMachine(ctx, r, in)
	if err != nil {
		return nil, nil, err
	}

	first := in.Sets[0]
	e := &models.ExerciseEntry{
		SessionID:       sess.ID,
		MachineID:       machine.ID,
		Position:        position,
		PlannedSets:     len(in.Sets),
		PlannedReps:     plannedReps(first),
		PlannedWeight:   first.Weight,
		Status:          models.ExerciseInProgress,
		DurationSec:     in.DurationSec,
		PerceivedEffort: in.PerceivedEffort,
		Comment:         in.Comment,
	}
	if err := s.saveEntry(ctx, r, e); err != nil {
		return nil, nil, err
	}

	sets := make([]models.SetRecord, 0, len(in.Sets))
	for n, cs := range in.Sets {
		set := models.SetRecord{
			ExerciseID:      e.ID,
			SetNumber:       n + 1,
			PlannedReps:     plannedReps(cs),
			PlannedWeight:   cs.Weight,
			ActualReps:      cs.Reps,
			ActualRestSec:   cs.RestSec,
			PerceivedEffort: cs.PerceivedEffort,
			Comment:         cs.Comment,
		}
		if cs.Weight > 0 {
			w := cs.Weight
			set.ActualWeight = &w
		}
		set.Status = deriveSetStatus(set)
		if err := r.InsertSet(ctx, &set); err != nil {
			return nil, nil, err
		}
		sets = append(sets, set)
	}

	training.RollUpSets(e, sets)
	e.Status = models.ExerciseCompleted
	if e.SetsRealized == 0 {
		e.Status = models.ExerciseFailed
	}
	if err := s.saveEntry(ctx, r, e); err != nil {
		return nil, nil, err
	}
	return e, sets, nil
}

func (s *Service) resolveMachine(ctx context.Context, r storage.Repository, in CompletedExerciseInput) (*models.Machine, error) {
	if in.MachineID > 0 {
		m, err := r.GetMachine(ctx, in.MachineID)
		if err != nil {
			return nil, notFound("machine", in.MachineID, err)
		}
		return m, nil
	}
	name := strings.TrimSpace(in.MachineName)
	m, err := r.FindMachineByName(ctx, name)
	if err == nil && (strings.EqualFold(m.Name, name) || strings.EqualFold(m.EnglishName, name)) {
		return m, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	created := models.NewMachine(name)
	if err := r.InsertMachine(ctx, &created); err != nil {
		return nil, err
	}
	s.log.Info("machine created", "machine_id", created.ID, "name", name)
	return &created, nil
}

func plannedReps(cs CompletedSet) int {
	switch {
	case cs.PlannedReps > 0:
		return cs.PlannedReps
	case cs.Reps > 0:
		return cs.Reps
	default:
		return 1
	}
}
