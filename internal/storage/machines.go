package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Worcesters/basicfit/internal/models"
)

const machineColumns = `id, name, english_name, description, category, weight_increment,
	min_weight, max_weight, difficulty, available, usage_count, created_at, updated_at`

func scanMachine(r rowScanner) (*models.Machine, error) {
	var m models.Machine
	var category, difficulty string
	err := r.Scan(&m.ID, &m.Name, &m.EnglishName, &m.Description, &category, &m.WeightIncrement,
		&m.MinWeight, &m.MaxWeight, &difficulty, &m.Available, &m.UsageCount, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Category = models.MachineCategory(category)
	m.Difficulty = models.Difficulty(difficulty)
	return &m, nil
}

// InsertMachine adds a machine to the catalog and sets its ID.
func (t *Tx) InsertMachine(ctx context.Context, m *models.Machine) error {
	m.Touch(t.stamp())
	id, err := t.insertReturningID(ctx, `
		INSERT INTO machines (name, english_name, description, category, weight_increment,
			min_weight, max_weight, difficulty, available, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, m.Name, m.EnglishName, m.Description, string(m.Category), m.WeightIncrement,
		m.MinWeight, m.MaxWeight, string(m.Difficulty), m.Available, m.UsageCount, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting machine %q: %w", m.Name, err)
	}
	m.ID = id
	return nil
}

// GetMachine loads one machine.
func (t *Tx) GetMachine(ctx context.Context, id int64) (*models.Machine, error) {
	m, err := scanMachine(t.tx.QueryRowContext(ctx,
		`SELECT `+machineColumns+` FROM machines WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying machine %d: %w", id, classify(err))
	}
	return m, nil
}

// FindMachineByName returns the machine whose name matches exactly, ignoring
// case, or the first one whose name contains it.
func (t *Tx) FindMachineByName(ctx context.Context, name string) (*models.Machine, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	m, err := scanMachine(t.tx.QueryRowContext(ctx, `
		SELECT `+machineColumns+` FROM machines
		WHERE LOWER(name) = $1 OR LOWER(english_name) = $1 OR LOWER(name) LIKE $2
		ORDER BY CASE WHEN LOWER(name) = $1 OR LOWER(english_name) = $1 THEN 0 ELSE 1 END, id
		LIMIT 1
	`, needle, "%"+needle+"%"))
	if err != nil {
		return nil, fmt.Errorf("finding machine %q: %w", name, classify(err))
	}
	return m, nil
}

// ListMachines returns the catalog ordered by category and name.
func (t *Tx) ListMachines(ctx context.Context) ([]models.Machine, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+machineColumns+` FROM machines ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("querying machines: %w", err)
	}
	defer rows.Close()

	var result []models.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning machine: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// IncrementMachineUsage bumps the usage counter of a machine.
func (t *Tx) IncrementMachineUsage(ctx context.Context, id int64) error {
	if err := t.execOne(ctx,
		`UPDATE machines SET usage_count = usage_count + 1, updated_at = $1 WHERE id = $2`,
		t.stamp(), id); err != nil {
		return fmt.Errorf("incrementing usage of machine %d: %w", id, err)
	}
	return nil
}

// InsertVariant adds a variant to a machine and sets its ID.
func (t *Tx) InsertVariant(ctx context.Context, v *models.MachineVariant) error {
	v.Touch(t.stamp())
	id, err := t.insertReturningID(ctx, `
		INSERT INTO machine_variants (machine_id, name, description, difficulty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, v.MachineID, v.Name, v.Description, string(v.Difficulty), v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting variant %q: %w", v.Name, err)
	}
	v.ID = id
	return nil
}

// GetVariant loads one machine variant.
func (t *Tx) GetVariant(ctx context.Context, id int64) (*models.MachineVariant, error) {
	var v models.MachineVariant
	var difficulty string
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, machine_id, name, description, difficulty, created_at, updated_at
		FROM machine_variants WHERE id = $1
	`, id).Scan(&v.ID, &v.MachineID, &v.Name, &v.Description, &difficulty, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying variant %d: %w", id, classify(err))
	}
	v.Difficulty = models.Difficulty(difficulty)
	return &v, nil
}

// ListVariants returns the variants of one machine.
func (t *Tx) ListVariants(ctx context.Context, machineID int64) ([]models.MachineVariant, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, machine_id, name, description, difficulty, created_at, updated_at
		FROM machine_variants WHERE machine_id = $1 ORDER BY name
	`, machineID)
	if err != nil {
		return nil, fmt.Errorf("querying variants: %w", err)
	}
	defer rows.Close()

	var result []models.MachineVariant
	for rows.Next() {
		var v models.MachineVariant
		var difficulty string
		if err := rows.Scan(&v.ID, &v.MachineID, &v.Name, &v.Description, &difficulty, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}
		v.Difficulty = models.Difficulty(difficulty)
		result = append(result, v)
	}
	return result, rows.Err()
}
