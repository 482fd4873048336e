package storage

import (
	"context"
	"fmt"

	"github.com/Worcesters/basicfit/internal/models"
)

const setColumns = `id, exercise_id, set_number, planned_reps, planned_weight, planned_rest_sec,
	actual_reps, actual_weight, actual_rest_sec, status, perceived_effort, comment, created_at, updated_at`

func scanSet(r rowScanner) (*models.SetRecord, error) {
	var s models.SetRecord
	var status string
	err := r.Scan(&s.ID, &s.ExerciseID, &s.SetNumber, &s.PlannedReps, &s.PlannedWeight, &s.PlannedRestSec,
		&s.ActualReps, &s.ActualWeight, &s.ActualRestSec, &status, &s.PerceivedEffort, &s.Comment,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SetStatus(status)
	return &s, nil
}

// InsertSet stores a set record and sets its ID.
func (t *Tx) InsertSet(ctx context.Context, s *models.SetRecord) error {
	s.Touch(t.stamp())
	id, err := t.insertReturningID(ctx, `
		INSERT INTO set_records (exercise_id, set_number, planned_reps, planned_weight, planned_rest_sec,
			actual_reps, actual_weight, actual_rest_sec, status, perceived_effort, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, s.ExerciseID, s.SetNumber, s.PlannedReps, s.PlannedWeight, s.PlannedRestSec,
		s.ActualReps, s.ActualWeight, s.ActualRestSec, string(s.Status), s.PerceivedEffort, s.Comment,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting set %d of exercise %d: %w", s.SetNumber, s.ExerciseID, err)
	}
	s.ID = id
	return nil
}

// GetSet loads one set record.
func (t *Tx) GetSet(ctx context.Context, id int64, lock bool) (*models.SetRecord, error) {
	s, err := scanSet(t.tx.QueryRowContext(ctx,
		`SELECT `+setColumns+` FROM set_records WHERE id = $1`+t.lockClause(lock), id))
	if err != nil {
		return nil, fmt.Errorf("querying set %d: %w", id, classify(err))
	}
	return s, nil
}

// UpdateSet writes the planned and actual fields of s.
func (t *Tx) UpdateSet(ctx context.Context, s *models.SetRecord) error {
	s.UpdatedAt = t.stamp()
	err := t.execOne(ctx, `
		UPDATE set_records SET planned_reps = $1, planned_weight = $2, planned_rest_sec = $3,
			actual_reps = $4, actual_weight = $5, actual_rest_sec = $6, status = $7,
			perceived_effort = $8, comment = $9, updated_at = $10
		WHERE id = $11
	`, s.PlannedReps, s.PlannedWeight, s.PlannedRestSec,
		s.ActualReps, s.ActualWeight, s.ActualRestSec, string(s.Status),
		s.PerceivedEffort, s.Comment, s.UpdatedAt,
		s.ID)
	if err != nil {
		return fmt.Errorf("updating set %d: %w", s.ID, err)
	}
	return nil
}

// ListSets returns the sets of an exercise entry ordered by set number.
func (t *Tx) ListSets(ctx context.Context, exerciseID int64) ([]models.SetRecord, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+setColumns+` FROM set_records WHERE exercise_id = $1 ORDER BY set_number`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetRecord
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
