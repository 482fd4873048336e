package workout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/training"
)

// EvaluateAndApplyProgression scores a finished exercise entry against its
// tracker and raises the working weight when the success rate reaches the
// tracker's threshold and the machine maximum allows it. The tracker is
// created on first use. An entry can be evaluated once; a second
// evaluation is a conflict.
func (s *Service) EvaluateAndApplyProgression(ctx context.Context, exerciseID int64) (*models.ProgressionResult, error) {
	var res *models.ProgressionResult
	err := s.run(ctx, "evaluate", "exercise entry", exerciseID, func(ctx context.Context, r storage.Repository) error {
		e, err := r.GetExercise(ctx, exerciseID, true)
		if err != nil {
			return notFound("exercise entry", exerciseID, err)
		}
		if !e.Status.Finished() {
			return conflictf("exercise entry %d is %s, not completed", exerciseID, e.Status)
		}
		sess, err := r.GetSession(ctx, e.SessionID, false)
		if err != nil {
			return err
		}
		if sess.TrainingModeID == nil {
			res = &models.ProgressionResult{Reason: training.ReasonNoTrainingMode}
			return nil
		}
		sets, err := r.ListSets(ctx, exerciseID)
		if err != nil {
			return err
		}
		res, err = s.evaluate(ctx, r, sess, e, sets)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observeProgression(res)
	return res, nil
}

// evaluate runs the progression policy for one entry inside the caller's
// transaction and records the evaluation on the tracker.
func (s *Service) evaluate(ctx context.Context, r storage.Repository, sess *models.Session, e *models.ExerciseEntry, sets []models.SetRecord) (*models.ProgressionResult, error) {
	mode, err := r.GetTrainingMode(ctx, *sess.TrainingModeID)
	if err != nil {
		return nil, notFound("training mode", *sess.TrainingModeID, err)
	}
	machine, err := r.GetMachine(ctx, e.MachineID)
	if err != nil {
		return nil, notFound("machine", e.MachineID, err)
	}

	if e.ProgressionEvaluatedAt != nil {
		return nil, conflictf("exercise entry %d was already evaluated", e.ID)
	}
	now := s.stamp()
	marked, err := r.MarkExerciseEvaluated(ctx, e.ID, now)
	if err != nil {
		return nil, err
	}
	if !marked {
		return nil, conflictf("exercise entry %d was already evaluated", e.ID)
	}
	e.ProgressionEvaluatedAt = &now

	tracker, err := s.trackerFor(ctx, r, sess.UserID, machine, mode, e)
	if err != nil {
		return nil, err
	}

	decision := training.Decide(*tracker, *e, sets)
	res := training.ApplyIncrement(tracker, *machine, decision)

	tracker.SessionCount++
	tracker.LastSessionID = &sess.ID
	tracker.LastExerciseID = &e.ID
	if e.EstimatedOneRM != nil {
		tracker.LastOneRM = e.EstimatedOneRM
	}
	tracker.SuccessRate = res.SuccessRate
	if res.Applied {
		tracker.LastProgressionAt = &now
	}
	if err := r.UpdateTracker(ctx, tracker); err != nil {
		return nil, err
	}
	return &res, nil
}

// trackerFor returns the locked tracker of (user, machine, mode), creating
// it from the mode's prescription and the entry's weight when missing.
func (s *Service) trackerFor(ctx context.Context, r storage.Repository, userID int64, machine *models.Machine, mode *models.TrainingMode, e *models.ExerciseEntry) (*models.ProgressionTracker, error) {
	t, err := r.GetTracker(ctx, userID, machine.ID, mode.ID, true)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	weight := e.PlannedWeight
	if e.WeightUsed != nil {
		weight = *e.WeightUsed
	}
	if weight <= 0 {
		weight = machine.MinWeight
	}
	t = &models.ProgressionTracker{
		UserID:           userID,
		MachineID:        machine.ID,
		TrainingModeID:   mode.ID,
		CurrentWeight:    weight,
		CurrentSets:      mode.RecommendedSets,
		CurrentReps:      training.RecommendedReps(mode.Code),
		AutoIncrement:    s.autoIncrement,
		SuccessThreshold: s.threshold,
		FirstUsedAt:      s.stamp(),
	}
	if err := r.InsertTracker(ctx, t); err != nil {
		return nil, err
	}
	s.log.Debug("progression tracker created", "user_id", userID, "machine_id", machine.ID, "mode", mode.Code, "weight", weight)
	return t, nil
}

func (s *Service) observeProgression(res *models.ProgressionResult) {
	if res == nil {
		return
	}
	s.metrics.CounterProgressions.WithLabelValues(res.Reason).Inc()
	if res.Applied {
		s.metrics.HistogramWeightIncrement.Observe(res.NewWeight - res.OldWeight)
	}
}

// GetRecommendation returns the next-session prescription of a tracker:
// its current weight with the mode's sets, reps and rest.
func (s *Service) GetRecommendation(ctx context.Context, userID, machineID, modeID int64) (*models.Recommendation, error) {
	var c checker
	c.check(userID > 0, "user_id is required")
	c.check(machineID > 0, "machine_id is required")
	c.check(modeID > 0, "mode_id is required")
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "recommend", Resource: "progression tracker", Err: err}
	}

	var rec models.Recommendation
	err := s.run(ctx, "recommend", "progression tracker", machineID, func(ctx context.Context, r storage.Repository) error {
		t, err := r.GetTracker(ctx, userID, machineID, modeID, false)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no tracker for user %d on machine %d in mode %d", ErrNotFound, userID, machineID, modeID)
		}
		if err != nil {
			return err
		}
		mode, err := r.GetTrainingMode(ctx, modeID)
		if err != nil {
			return notFound("training mode", modeID, err)
		}
		rec = training.Recommend(*t, *mode)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListTrackers returns every progression tracker of a user.
func (s *Service) ListTrackers(ctx context.Context, userID int64) ([]models.ProgressionTracker, error) {
	var out []models.ProgressionTracker
	err := s.run(ctx, "list", "progression tracker", 0, func(ctx context.Context, r storage.Repository) error {
		var err error
		out, err = r.ListTrackers(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ProgressionTracker{}
	}
	return out, nil
}
