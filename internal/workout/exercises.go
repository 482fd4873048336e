package workout

import (
	"context"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/training"
)

// SaveExerciseEntry creates (ID 0) or updates an exercise entry. Tonnage,
// volume and estimated 1RM are always recomputed from the realized fields;
// values supplied for them are ignored. A zero Position appends the entry.
func (s *Service) SaveExerciseEntry(ctx context.Context, in models.ExerciseEntry) (*models.ExerciseEntry, error) {
	if in.Status == "" {
		in.Status = models.ExercisePlanned
	}
	if err := validateEntry(in); err != nil {
		return nil, &OpError{Op: "save", Resource: "exercise entry", ID: in.ID, Err: err}
	}

	e := in
	e.Sets = nil
	err := s.run(ctx, "save", "exercise entry", in.ID, func(ctx context.Context, r storage.Repository) error {
		sess, err := r.GetSession(ctx, e.SessionID, true)
		if err != nil {
			return notFound("session", e.SessionID, err)
		}
		if sess.Locked() {
			return conflictf("session %d is completed", sess.ID)
		}
		if e.ID != 0 {
			cur, err := r.GetExercise(ctx, e.ID, true)
			if err != nil {
				return notFound("exercise entry", e.ID, err)
			}
			if cur.SessionID != e.SessionID {
				return validationf("exercise entry %d belongs to session %d", e.ID, cur.SessionID)
			}
			if e.Position == 0 {
				e.Position = cur.Position
			}
			e.CreatedAt = cur.CreatedAt
		}
		return s.saveEntry(ctx, r, &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func validateEntry(e models.ExerciseEntry) error {
	var c checker
	c.check(e.SessionID > 0, "session_id is required")
	c.check(e.MachineID > 0, "machine_id is required")
	c.check(e.Position >= 0, "position must not be negative")
	c.check(e.PlannedSets >= 0, "planned_sets must not be negative")
	c.check(e.PlannedReps >= 0, "planned_reps must not be negative")
	c.check(e.PlannedWeight >= 0, "planned_weight must not be negative")
	c.check(e.PlannedRestSec >= 0, "planned_rest_sec must not be negative")
	c.check(e.Status.IsValid(), "unknown exercise status %q", e.Status)
	c.check(e.SetsRealized >= 0, "sets_realized must not be negative")
	c.check(e.RepsRealized >= 0, "reps_realized must not be negative")
	c.check(e.SetsRealized > 0 || e.RepsRealized == 0, "reps_realized requires sets_realized")
	c.check(positiveOrNil(e.WeightUsed), "weight_used must be positive")
	c.check(e.DurationSec == nil || *e.DurationSec >= 0, "duration_sec must not be negative")
	c.check(effortOK(e.PerceivedEffort), "perceived_effort must be between 1 and 10")
	return c.err()
}

// saveEntry is the single write path of exercise entries: check references,
// derive metrics, persist. The caller holds the session lock.
func (s *Service) saveEntry(ctx context.Context, r storage.Repository, e *models.ExerciseEntry) error {
	if _, err := r.GetMachine(ctx, e.MachineID); err != nil {
		return notFound("machine", e.MachineID, err)
	}
	if e.VariantID != nil {
		v, err := r.GetVariant(ctx, *e.VariantID)
		if err != nil {
			return notFound("machine variant", *e.VariantID, err)
		}
		if v.MachineID != e.MachineID {
			return validationf("variant %d does not belong to machine %d", v.ID, e.MachineID)
		}
	}

	if e.Position == 0 {
		existing, err := r.ListExercises(ctx, e.SessionID)
		if err != nil {
			return err
		}
		for _, x := range existing {
			if x.Position > e.Position {
				e.Position = x.Position
			}
		}
		e.Position++
	} else {
		taken, err := r.PositionTaken(ctx, e.SessionID, e.Position, e.ID)
		if err != nil {
			return err
		}
		if taken {
			return validationf("position %d is already used in session %d", e.Position, e.SessionID)
		}
	}

	training.ApplyExerciseMetrics(e)

	if e.ID == 0 {
		if err := r.InsertExercise(ctx, e); err != nil {
			return err
		}
		return r.IncrementMachineUsage(ctx, e.MachineID)
	}
	return r.UpdateExercise(ctx, e)
}

// PlanExerciseInput describes an exercise to add to a session together with
// its planned sets.
type PlanExerciseInput struct {
	SessionID int64   `json:"session_id"`
	MachineID int64   `json:"machine_id"`
	VariantID *int64  `json:"variant_id,omitempty"`
	Position  int     `json:"position,omitempty"`
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	RestSec   int     `json:"rest_sec"`
}

// PlanExercise adds an exercise entry with planned set records 1..Sets.
func (s *Service) PlanExercise(ctx context.Context, in PlanExerciseInput) (*models.ExerciseEntry, error) {
	var c checker
	c.check(in.Sets >= 1, "sets must be at least 1")
	c.check(in.Reps >= 1, "reps must be at least 1")
	c.check(in.Weight >= 0, "weight must not be negative")
	c.check(in.RestSec >= 0, "rest_sec must not be negative")
	e := models.ExerciseEntry{
		SessionID:      in.SessionID,
		MachineID:      in.MachineID,
		VariantID:      in.VariantID,
		Position:       in.Position,
		PlannedSets:    in.Sets,
		PlannedReps:    in.Reps,
		PlannedWeight:  in.Weight,
		PlannedRestSec: in.RestSec,
		Status:         models.ExercisePlanned,
	}
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "plan", Resource: "exercise entry", Err: err}
	}
	if err := validateEntry(e); err != nil {
		return nil, &OpError{Op: "plan", Resource: "exercise entry", Err: err}
	}

	err := s.run(ctx, "plan", "exercise entry", 0, func(ctx context.Context, r storage.Repository) error {
		sess, err := r.GetSession(ctx, e.SessionID, true)
		if err != nil {
			return notFound("session", e.SessionID, err)
		}
		if sess.Locked() {
			return conflictf("session %d is completed", sess.ID)
		}
		if err := s.saveEntry(ctx, r, &e); err != nil {
			return err
		}
		for n := 1; n <= in.Sets; n++ {
			set := models.SetRecord{
				ExerciseID:     e.ID,
				SetNumber:      n,
				PlannedReps:    in.Reps,
				PlannedWeight:  in.Weight,
				PlannedRestSec: in.RestSec,
				Status:         models.SetPlanned,
			}
			if err := r.InsertSet(ctx, &set); err != nil {
				return err
			}
			e.Sets = append(e.Sets, set)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CompleteInput carries the optional notes recorded when an exercise ends.
type CompleteInput struct {
	DurationSec     *int   `json:"duration_sec,omitempty"`
	PerceivedEffort *int   `json:"perceived_effort,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

// CompletedExercise is the result of CompleteExerciseEntry. Progression is
// nil when the session has no training mode.
type CompletedExercise struct {
	Entry       *models.ExerciseEntry     `json:"entry"`
	Progression *models.ProgressionResult `json:"progression,omitempty"`
}

// CompleteExerciseEntry rolls the set records up into the entry's realized
// fields, marks it completed (failed when no set was performed), saves it
// and evaluates progression on its tracker.
func (s *Service) CompleteExerciseEntry(ctx context.Context, id int64, in CompleteInput) (*CompletedExercise, error) {
	var c checker
	c.check(in.DurationSec == nil || *in.DurationSec >= 0, "duration_sec must not be negative")
	c.check(effortOK(in.PerceivedEffort), "perceived_effort must be between 1 and 10")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "complete", Resource: "exercise entry", ID: id, Err: err}
	}

	out := &CompletedExercise{}
	err := s.run(ctx, "complete", "exercise entry", id, func(ctx context.Context, r storage.Repository) error {
		sess, e, err := lockEntry(ctx, r, id)
		if err != nil {
			return err
		}
		if e.Status.Finished() {
			return conflictf("exercise entry %d is already %s", id, e.Status)
		}
		sets, err := r.ListSets(ctx, id)
		if err != nil {
			return err
		}

		training.RollUpSets(e, sets)
		e.Status = models.ExerciseCompleted
		if e.SetsRealized == 0 {
			e.Status = models.ExerciseFailed
		}
		if in.DurationSec != nil {
			e.DurationSec = in.DurationSec
		}
		if in.PerceivedEffort != nil {
			e.PerceivedEffort = in.PerceivedEffort
		}
		if in.Comment != "" {
			e.Comment = in.Comment
		}
		if err := s.saveEntry(ctx, r, e); err != nil {
			return err
		}
		e.Sets = sets
		out.Entry = e

		if sess.TrainingModeID != nil {
			out.Progression, err = s.evaluate(ctx, r, sess, e, sets)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observeProgression(out.Progression)
	return out, nil
}
