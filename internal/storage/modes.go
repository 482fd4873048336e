package storage

import (
	"context"
	"fmt"

	"github.com/Worcesters/basicfit/internal/models"
)

const modeColumns = `id, code, name, description, recommended_sets, reps_min, reps_max,
	rest_seconds, one_rm_pct_min, one_rm_pct_max, active, created_at, updated_at`

func scanMode(r rowScanner) (*models.TrainingMode, error) {
	var m models.TrainingMode
	var code string
	err := r.Scan(&m.ID, &code, &m.Name, &m.Description, &m.RecommendedSets, &m.RepsMin, &m.RepsMax,
		&m.RestSeconds, &m.OneRMPctMin, &m.OneRMPctMax, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Code = models.TrainingModeCode(code)
	return &m, nil
}

// GetTrainingMode loads a training mode by ID.
func (t *Tx) GetTrainingMode(ctx context.Context, id int64) (*models.TrainingMode, error) {
	m, err := scanMode(t.tx.QueryRowContext(ctx,
		`SELECT `+modeColumns+` FROM training_modes WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying training mode %d: %w", id, classify(err))
	}
	return m, nil
}

// GetTrainingModeByCode loads a training mode by its stable code.
func (t *Tx) GetTrainingModeByCode(ctx context.Context, code models.TrainingModeCode) (*models.TrainingMode, error) {
	m, err := scanMode(t.tx.QueryRowContext(ctx,
		`SELECT `+modeColumns+` FROM training_modes WHERE code = $1`, string(code)))
	if err != nil {
		return nil, fmt.Errorf("querying training mode %q: %w", code, classify(err))
	}
	return m, nil
}

// ListTrainingModes returns the active training modes.
func (t *Tx) ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+modeColumns+` FROM training_modes WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying training modes: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingMode
	for rows.Next() {
		m, err := scanMode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning training mode: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}
