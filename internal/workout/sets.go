package workout

import (
	"context"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
)

// CreateSetInput plans one set of an exercise entry. A zero SetNumber
// appends the next number.
type CreateSetInput struct {
	ExerciseID     int64   `json:"exercise_id"`
	SetNumber      int     `json:"set_number,omitempty"`
	PlannedReps    int     `json:"planned_reps"`
	PlannedWeight  float64 `json:"planned_weight"`
	PlannedRestSec int     `json:"planned_rest_sec"`
}

// CreateSetRecord adds a planned set. Set numbers stay dense from 1: the
// number must be free and at most one past the current last set.
func (s *Service) CreateSetRecord(ctx context.Context, in CreateSetInput) (*models.SetRecord, error) {
	var c checker
	c.check(in.ExerciseID > 0, "exercise_id is required")
	c.check(in.SetNumber >= 0, "set_number must not be negative")
	c.check(in.PlannedReps >= 1, "planned_reps must be at least 1")
	c.check(in.PlannedWeight >= 0, "planned_weight must not be negative")
	c.check(in.PlannedRestSec >= 0, "planned_rest_sec must not be negative")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "create", Resource: "set", Err: err}
	}

	set := &models.SetRecord{
		ExerciseID:     in.ExerciseID,
		SetNumber:      in.SetNumber,
		PlannedReps:    in.PlannedReps,
		PlannedWeight:  in.PlannedWeight,
		PlannedRestSec: in.PlannedRestSec,
		Status:         models.SetPlanned,
	}
	err := s.run(ctx, "create", "set", 0, func(ctx context.Context, r storage.Repository) error {
		if err := s.lockForSetWrite(ctx, r, in.ExerciseID); err != nil {
			return err
		}
		existing, err := r.ListSets(ctx, in.ExerciseID)
		if err != nil {
			return err
		}
		next := len(existing) + 1
		switch {
		case set.SetNumber == 0:
			set.SetNumber = next
		case set.SetNumber < next:
			return validationf("set number %d is already used", set.SetNumber)
		case set.SetNumber > next:
			return validationf("set number %d leaves a gap, next is %d", set.SetNumber, next)
		}
		return r.InsertSet(ctx, set)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// RecordSetInput is the performed result of a set. An empty Status is
// derived from the reps: succeeded at or above the plan, failed at zero,
// partial in between.
type RecordSetInput struct {
	SetID           int64            `json:"set_id"`
	ActualReps      int              `json:"actual_reps"`
	ActualWeight    *float64         `json:"actual_weight,omitempty"`
	ActualRestSec   *int             `json:"actual_rest_sec,omitempty"`
	Status          models.SetStatus `json:"status,omitempty"`
	PerceivedEffort *int             `json:"perceived_effort,omitempty"`
	Comment         string           `json:"comment,omitempty"`
}

// RecordSetResult stores what was actually performed in a set. It does not
// touch the parent entry's metrics; those follow the next entry save.
func (s *Service) RecordSetResult(ctx context.Context, in RecordSetInput) (*models.SetRecord, error) {
	var c checker
	c.check(in.SetID > 0, "set_id is required")
	c.check(in.ActualReps >= 0, "actual_reps must not be negative")
	c.check(positiveOrNil(in.ActualWeight), "actual_weight must be positive")
	c.check(in.ActualRestSec == nil || *in.ActualRestSec >= 0, "actual_rest_sec must not be negative")
	c.check(in.Status == "" || in.Status.IsValid(), "unknown set status %q", in.Status)
	c.check(effortOK(in.PerceivedEffort), "perceived_effort must be between 1 and 10")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "record", Resource: "set", ID: in.SetID, Err: err}
	}

	var set *models.SetRecord
	err := s.run(ctx, "record", "set", in.SetID, func(ctx context.Context, r storage.Repository) error {
		cur, err := r.GetSet(ctx, in.SetID, false)
		if err != nil {
			return notFound("set", in.SetID, err)
		}
		if err := s.lockForSetWrite(ctx, r, cur.ExerciseID); err != nil {
			return err
		}
		if set, err = r.GetSet(ctx, in.SetID, true); err != nil {
			return err
		}
		set.ActualReps = in.ActualReps
		set.ActualWeight = in.ActualWeight
		set.ActualRestSec = in.ActualRestSec
		set.PerceivedEffort = in.PerceivedEffort
		if in.Comment != "" {
			set.Comment = in.Comment
		}
		set.Status = in.Status
		if set.Status == "" {
			set.Status = deriveSetStatus(*set)
		}
		return r.UpdateSet(ctx, set)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CounterSetsRecorded.Inc()
	return set, nil
}

// lockForSetWrite locks the session and then the entry, and rejects writes
// to a completed session.
func (s *Service) lockForSetWrite(ctx context.Context, r storage.Repository, exerciseID int64) error {
	_, _, err := lockEntry(ctx, r, exerciseID)
	return err
}

// lockEntry locks an entry's session before the entry itself, the order
// every write path uses.
func lockEntry(ctx context.Context, r storage.Repository, exerciseID int64) (*models.Session, *models.ExerciseEntry, error) {
	e, err := r.GetExercise(ctx, exerciseID, false)
	if err != nil {
		return nil, nil, notFound("exercise entry", exerciseID, err)
	}
	sess, err := r.GetSession(ctx, e.SessionID, true)
	if err != nil {
		return nil, nil, err
	}
	if sess.Locked() {
		return nil, nil, conflictf("session %d is completed", sess.ID)
	}
	if e, err = r.GetExercise(ctx, exerciseID, true); err != nil {
		return nil, nil, err
	}
	return sess, e, nil
}

func deriveSetStatus(s models.SetRecord) models.SetStatus {
	switch {
	case s.IsSuccessful():
		return models.SetSucceeded
	case s.ActualReps == 0:
		return models.SetFailed
	default:
		return models.SetPartial
	}
}
