package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
)

const exerciseColumns = `e.id, e.session_id, e.machine_id, e.variant_id, e.position, e.planned_sets,
	e.planned_reps, e.planned_weight, e.planned_rest_sec, e.status, e.sets_realized, e.reps_realized,
	e.weight_used, e.tonnage, e.volume, e.estimated_1rm, e.duration_sec, e.perceived_effort, e.comment,
	e.progression_evaluated_at, e.created_at, e.updated_at`

func scanExercise(r rowScanner) (*models.ExerciseEntry, error) {
	var e models.ExerciseEntry
	var status string
	err := r.Scan(&e.ID, &e.SessionID, &e.MachineID, &e.VariantID, &e.Position, &e.PlannedSets,
		&e.PlannedReps, &e.PlannedWeight, &e.PlannedRestSec, &status, &e.SetsRealized, &e.RepsRealized,
		&e.WeightUsed, &e.Tonnage, &e.Volume, &e.EstimatedOneRM, &e.DurationSec, &e.PerceivedEffort, &e.Comment,
		&e.ProgressionEvaluatedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = models.ExerciseStatus(status)
	return &e, nil
}

// InsertExercise stores a new exercise entry, derived fields included, and
// sets its ID.
func (t *Tx) InsertExercise(ctx context.Context, e *models.ExerciseEntry) error {
	e.Touch(t.stamp())
	id, err := t.insertReturningID(ctx, `
		INSERT INTO exercise_entries (session_id, machine_id, variant_id, position, planned_sets,
			planned_reps, planned_weight, planned_rest_sec, status, sets_realized, reps_realized,
			weight_used, tonnage, volume, estimated_1rm, duration_sec, perceived_effort, comment,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`, e.SessionID, e.MachineID, e.VariantID, e.Position, e.PlannedSets,
		e.PlannedReps, e.PlannedWeight, e.PlannedRestSec, string(e.Status), e.SetsRealized, e.RepsRealized,
		e.WeightUsed, e.Tonnage, e.Volume, e.EstimatedOneRM, e.DurationSec, e.PerceivedEffort, e.Comment,
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting exercise entry: %w", err)
	}
	e.ID = id
	return nil
}

// GetExercise loads an exercise entry without its sets.
func (t *Tx) GetExercise(ctx context.Context, id int64, lock bool) (*models.ExerciseEntry, error) {
	e, err := scanExercise(t.tx.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercise_entries e WHERE e.id = $1`+t.lockClause(lock), id))
	if err != nil {
		return nil, fmt.Errorf("querying exercise entry %d: %w", id, classify(err))
	}
	return e, nil
}

// UpdateExercise writes every mutable column of e. The session it belongs
// to never changes.
func (t *Tx) UpdateExercise(ctx context.Context, e *models.ExerciseEntry) error {
	e.UpdatedAt = t.stamp()
	err := t.execOne(ctx, `
		UPDATE exercise_entries SET machine_id = $1, variant_id = $2, position = $3, planned_sets = $4,
			planned_reps = $5, planned_weight = $6, planned_rest_sec = $7, status = $8, sets_realized = $9,
			reps_realized = $10, weight_used = $11, tonnage = $12, volume = $13, estimated_1rm = $14,
			duration_sec = $15, perceived_effort = $16, comment = $17, updated_at = $18
		WHERE id = $19
	`, e.MachineID, e.VariantID, e.Position, e.PlannedSets,
		e.PlannedReps, e.PlannedWeight, e.PlannedRestSec, string(e.Status), e.SetsRealized,
		e.RepsRealized, e.WeightUsed, e.Tonnage, e.Volume, e.EstimatedOneRM,
		e.DurationSec, e.PerceivedEffort, e.Comment, e.UpdatedAt,
		e.ID)
	if err != nil {
		return fmt.Errorf("updating exercise entry %d: %w", e.ID, err)
	}
	return nil
}

// MarkExerciseEvaluated stamps the entry's progression evaluation. It
// reports false when the entry was already evaluated.
func (t *Tx) MarkExerciseEvaluated(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE exercise_entries SET progression_evaluated_at = $1 WHERE id = $2 AND progression_evaluated_at IS NULL`,
		at.UTC().Truncate(time.Microsecond), id)
	if err != nil {
		return false, fmt.Errorf("marking exercise entry %d evaluated: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListExercises returns the entries of a session in display order.
func (t *Tx) ListExercises(ctx context.Context, sessionID int64) ([]models.ExerciseEntry, error) {
	return t.queryExercises(ctx,
		`SELECT `+exerciseColumns+` FROM exercise_entries e WHERE e.session_id = $1 ORDER BY e.position`,
		sessionID)
}

// ListUserExercises returns every entry of a user's sessions in the given
// status, grouped by session.
func (t *Tx) ListUserExercises(ctx context.Context, userID int64, status models.SessionStatus) ([]models.ExerciseEntry, error) {
	return t.queryExercises(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercise_entries e
		JOIN sessions s ON s.id = e.session_id
		WHERE s.user_id = $1 AND s.status = $2
		ORDER BY e.session_id, e.position
	`, userID, string(status))
}

func (t *Tx) queryExercises(ctx context.Context, query string, args ...any) ([]models.ExerciseEntry, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise entries: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseEntry
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise entry: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// PositionTaken reports whether another entry of the session already uses
// position.
func (t *Tx) PositionTaken(ctx context.Context, sessionID int64, position int, excludeID int64) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercise_entries WHERE session_id = $1 AND position = $2 AND id <> $3`,
		sessionID, position, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking exercise position: %w", err)
	}
	return n > 0, nil
}
