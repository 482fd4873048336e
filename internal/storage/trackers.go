package storage

import (
	"context"
	"fmt"

	"github.com/Worcesters/basicfit/internal/models"
)

const trackerColumns = `id, user_id, machine_id, training_mode_id, current_weight, current_sets,
	current_reps, last_session_id, last_exercise_id, last_1rm, session_count, total_progression,
	success_rate, auto_increment, success_threshold, first_used_at, last_progression_at,
	created_at, updated_at`

func scanTracker(r rowScanner) (*models.ProgressionTracker, error) {
	var p models.ProgressionTracker
	err := r.Scan(&p.ID, &p.UserID, &p.MachineID, &p.TrainingModeID, &p.CurrentWeight, &p.CurrentSets,
		&p.CurrentReps, &p.LastSessionID, &p.LastExerciseID, &p.LastOneRM, &p.SessionCount, &p.TotalProgression,
		&p.SuccessRate, &p.AutoIncrement, &p.SuccessThreshold, &p.FirstUsedAt, &p.LastProgressionAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetTracker loads the tracker of a (user, machine, mode) triple.
func (t *Tx) GetTracker(ctx context.Context, userID, machineID, modeID int64, lock bool) (*models.ProgressionTracker, error) {
	p, err := scanTracker(t.tx.QueryRowContext(ctx, `
		SELECT `+trackerColumns+` FROM progression_trackers
		WHERE user_id = $1 AND machine_id = $2 AND training_mode_id = $3`+t.lockClause(lock),
		userID, machineID, modeID))
	if err != nil {
		return nil, fmt.Errorf("querying tracker (user %d, machine %d, mode %d): %w", userID, machineID, modeID, classify(err))
	}
	return p, nil
}

// InsertTracker creates a tracker and sets its ID.
func (t *Tx) InsertTracker(ctx context.Context, p *models.ProgressionTracker) error {
	p.Touch(t.stamp())
	if p.FirstUsedAt.IsZero() {
		p.FirstUsedAt = p.CreatedAt
	}
	id, err := t.insertReturningID(ctx, `
		INSERT INTO progression_trackers (user_id, machine_id, training_mode_id, current_weight, current_sets,
			current_reps, last_session_id, last_exercise_id, last_1rm, session_count, total_progression,
			success_rate, auto_increment, success_threshold, first_used_at, last_progression_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`, p.UserID, p.MachineID, p.TrainingModeID, p.CurrentWeight, p.CurrentSets,
		p.CurrentReps, p.LastSessionID, p.LastExerciseID, p.LastOneRM, p.SessionCount, p.TotalProgression,
		p.SuccessRate, p.AutoIncrement, p.SuccessThreshold, p.FirstUsedAt, p.LastProgressionAt,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting tracker: %w", err)
	}
	p.ID = id
	return nil
}

// UpdateTracker writes the mutable state of a tracker.
func (t *Tx) UpdateTracker(ctx context.Context, p *models.ProgressionTracker) error {
	p.UpdatedAt = t.stamp()
	err := t.execOne(ctx, `
		UPDATE progression_trackers SET current_weight = $1, current_sets = $2, current_reps = $3,
			last_session_id = $4, last_exercise_id = $5, last_1rm = $6, session_count = $7,
			total_progression = $8, success_rate = $9, auto_increment = $10, success_threshold = $11,
			last_progression_at = $12, updated_at = $13
		WHERE id = $14
	`, p.CurrentWeight, p.CurrentSets, p.CurrentReps,
		p.LastSessionID, p.LastExerciseID, p.LastOneRM, p.SessionCount,
		p.TotalProgression, p.SuccessRate, p.AutoIncrement, p.SuccessThreshold,
		p.LastProgressionAt, p.UpdatedAt,
		p.ID)
	if err != nil {
		return fmt.Errorf("updating tracker %d: %w", p.ID, err)
	}
	return nil
}

// ListTrackers returns all trackers of a user.
func (t *Tx) ListTrackers(ctx context.Context, userID int64) ([]models.ProgressionTracker, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+trackerColumns+` FROM progression_trackers WHERE user_id = $1 ORDER BY machine_id, training_mode_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying trackers: %w", err)
	}
	defer rows.Close()

	var result []models.ProgressionTracker
	for rows.Next() {
		p, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracker: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
