package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
)

const sessionColumns = `id, user_id, training_mode_id, name, description, scheduled_at, started_at,
	ended_at, planned_duration_min, status, perceived_effort, difficulty, comment, body_weight,
	resting_heart_rate, peak_heart_rate, volume_total, tonnage_total, exercise_count, set_count,
	created_at, updated_at`

func scanSession(r rowScanner) (*models.Session, error) {
	var s models.Session
	var status string
	err := r.Scan(&s.ID, &s.UserID, &s.TrainingModeID, &s.Name, &s.Description, &s.ScheduledAt, &s.StartedAt,
		&s.EndedAt, &s.PlannedDurationMin, &status, &s.PerceivedEffort, &s.Difficulty, &s.Comment, &s.BodyWeight,
		&s.RestingHeartRate, &s.PeakHeartRate, &s.VolumeTotal, &s.TonnageTotal, &s.ExerciseCount, &s.SetCount,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	return &s, nil
}

// InsertSession creates a session and sets its ID.
func (t *Tx) InsertSession(ctx context.Context, s *models.Session) error {
	s.Touch(t.stamp())
	id, err := t.insertReturningID(ctx, `
		INSERT INTO sessions (user_id, training_mode_id, name, description, scheduled_at, started_at,
			ended_at, planned_duration_min, status, perceived_effort, difficulty, comment, body_weight,
			resting_heart_rate, peak_heart_rate, volume_total, tonnage_total, exercise_count, set_count,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`, s.UserID, s.TrainingModeID, s.Name, s.Description, s.ScheduledAt, s.StartedAt,
		s.EndedAt, s.PlannedDurationMin, string(s.Status), s.PerceivedEffort, s.Difficulty, s.Comment, s.BodyWeight,
		s.RestingHeartRate, s.PeakHeartRate, s.VolumeTotal, s.TonnageTotal, s.ExerciseCount, s.SetCount,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	s.ID = id
	return nil
}

// GetSession loads a session without its exercises. With lock set the row
// stays locked until the transaction ends.
func (t *Tx) GetSession(ctx context.Context, id int64, lock bool) (*models.Session, error) {
	s, err := scanSession(t.tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`+t.lockClause(lock), id))
	if err != nil {
		return nil, fmt.Errorf("querying session %d: %w", id, classify(err))
	}
	return s, nil
}

// UpdateSession writes every mutable column of s.
func (t *Tx) UpdateSession(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = t.stamp()
	err := t.execOne(ctx, `
		UPDATE sessions SET training_mode_id = $1, name = $2, description = $3, scheduled_at = $4,
			started_at = $5, ended_at = $6, planned_duration_min = $7, status = $8, perceived_effort = $9,
			difficulty = $10, comment = $11, body_weight = $12, resting_heart_rate = $13, peak_heart_rate = $14,
			volume_total = $15, tonnage_total = $16, exercise_count = $17, set_count = $18, updated_at = $19
		WHERE id = $20
	`, s.TrainingModeID, s.Name, s.Description, s.ScheduledAt,
		s.StartedAt, s.EndedAt, s.PlannedDurationMin, string(s.Status), s.PerceivedEffort,
		s.Difficulty, s.Comment, s.BodyWeight, s.RestingHeartRate, s.PeakHeartRate,
		s.VolumeTotal, s.TonnageTotal, s.ExerciseCount, s.SetCount, s.UpdatedAt,
		s.ID)
	if err != nil {
		return fmt.Errorf("updating session %d: %w", s.ID, err)
	}
	return nil
}

// ListSessions returns a user's sessions, newest first.
func (t *Tx) ListSessions(ctx context.Context, f SessionFilter) ([]models.Session, error) {
	conditions := []string{"user_id = $1"}
	args := []any{f.UserID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// FindSessionByStart returns the user's session with the given name and
// start time. Imports use it to skip sessions they already stored.
func (t *Tx) FindSessionByStart(ctx context.Context, userID int64, name string, startedAt time.Time) (*models.Session, error) {
	s, err := scanSession(t.tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND name = $2 AND started_at = $3
		ORDER BY id LIMIT 1`,
		userID, name, startedAt.UTC().Truncate(time.Microsecond)))
	if err != nil {
		return nil, fmt.Errorf("finding session %q: %w", name, classify(err))
	}
	return s, nil
}
