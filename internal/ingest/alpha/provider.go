package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/Worcesters/basicfit/internal/ingest"
	"github.com/Worcesters/basicfit/internal/workout"
)

// Saver stores a finished workout. *workout.Service implements it.
type Saver interface {
	SaveCompletedSession(ctx context.Context, in workout.CompletedSessionInput) (*workout.CompletedSessionResult, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	svc  Saver
	log  *slog.Logger
	mode string
}

// NewProvider creates a new Alpha Progression ingest provider. A non-empty
// mode selects the training mode every imported session is recorded in.
func NewProvider(svc Saver, log *slog.Logger, mode string) *Provider {
	return &Provider{svc: svc, log: log, mode: mode}
}

// Ingest parses a CSV export and stores each session as a completed
// workout of userID. Sessions already imported are skipped, so an export
// can be imported again after new workouts were appended to it. A session
// that fails is reported in Result.Errors and does not stop the others.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int64) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := ingest.NewResult()
	result.SessionsReceived = len(sessions)

	for _, s := range sessions {
		in, sets, warmups := p.toInput(s, userID)
		result.SetsReceived += sets
		result.WarmupsSkipped += warmups
		if len(in.Exercises) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: no working sets", s.Date.Format("2006-01-02"), s.Name))
			continue
		}

		res, err := p.svc.SaveCompletedSession(ctx, in)
		if err != nil {
			p.log.Warn("alpha session rejected", "batch_id", result.BatchID, "session", s.Name, "date", s.Date, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", s.Date.Format("2006-01-02"), s.Name, err))
			continue
		}
		if res.Skipped {
			result.SessionsSkipped++
			continue
		}

		result.SessionsInserted++
		for _, e := range res.Session.Exercises {
			result.ExercisesInserted++
			result.SetsInserted += len(e.Sets)
		}
		for _, pr := range res.Progressions {
			if pr.Applied {
				result.ProgressionsApplied++
			}
		}
		p.log.Debug("alpha session imported", "batch_id", result.BatchID, "session_id", res.Session.ID, "name", s.Name)
	}

	p.log.Info("alpha import finished",
		"batch_id", result.BatchID,
		"received", result.SessionsReceived,
		"inserted", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// toInput maps a parsed session to a completed workout. It also returns
// the number of working sets and warmups seen; warmups are not stored.
func (p *Provider) toInput(s Session, userID int64) (workout.CompletedSessionInput, int, int) {
	in := workout.CompletedSessionInput{
		UserID:       userID,
		Name:         s.Name,
		ModeCode:     p.mode,
		StartedAt:    s.Date,
		SkipExisting: true,
	}
	if d, ok := parseDuration(s.Duration); ok {
		end := s.Date.Add(d)
		in.EndedAt = &end
	}

	var sets, warmups int
	for _, ex := range s.Exercises {
		ce := workout.CompletedExerciseInput{MachineName: ex.Name}
		for _, set := range ex.Sets {
			if set.IsWarmup {
				warmups++
				continue
			}
			sets++
			ce.Sets = append(ce.Sets, workout.CompletedSet{
				Reps:            set.Reps,
				Weight:          set.WeightKg,
				PlannedReps:     ex.TargetReps,
				PerceivedEffort: effortFromRIR(set.RIR),
			})
		}
		if len(ce.Sets) > 0 {
			in.Exercises = append(in.Exercises, ce)
		}
	}
	return in, sets, warmups
}

// effortFromRIR converts reps in reserve to a 1..10 effort rating.
func effortFromRIR(rir float64) *int {
	effort := int(math.Round(10 - rir))
	effort = max(1, min(10, effort))
	return &effort
}
