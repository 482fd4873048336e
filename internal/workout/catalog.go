package workout

import (
	"context"
	"strings"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
)

// MachineInput describes a catalog machine. Zero loading fields take the
// catalog defaults.
type MachineInput struct {
	Name            string                 `json:"name"`
	EnglishName     string                 `json:"english_name,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Category        models.MachineCategory `json:"category,omitempty"`
	WeightIncrement float64                `json:"weight_increment,omitempty"`
	MinWeight       *float64               `json:"min_weight,omitempty"`
	MaxWeight       float64                `json:"max_weight,omitempty"`
	Difficulty      models.Difficulty      `json:"difficulty,omitempty"`
}

func (in MachineInput) machine() models.Machine {
	m := models.NewMachine(strings.TrimSpace(in.Name))
	m.EnglishName = in.EnglishName
	m.Description = in.Description
	if in.Category != "" {
		m.Category = in.Category
	}
	if in.WeightIncrement != 0 {
		m.WeightIncrement = in.WeightIncrement
	}
	if in.MinWeight != nil {
		m.MinWeight = *in.MinWeight
	}
	if in.MaxWeight != 0 {
		m.MaxWeight = in.MaxWeight
	}
	if in.Difficulty != "" {
		m.Difficulty = in.Difficulty
	}
	return m
}

func validateMachine(m models.Machine) error {
	var c checker
	c.check(m.Name != "", "name is required")
	c.check(m.Category.IsValid(), "unknown category %q", m.Category)
	c.check(m.Difficulty.IsValid(), "unknown difficulty %q", m.Difficulty)
	c.check(m.MinWeight >= 0, "min_weight must not be negative")
	c.check(m.MinWeight < m.MaxWeight, "min_weight must be below max_weight")
	c.check(m.WeightIncrement > 0, "weight_increment must be positive")
	c.check(m.WeightIncrement <= m.MaxWeight-m.MinWeight, "weight_increment must not exceed the weight range")
	return c.err()
}

// CreateMachine adds a machine to the catalog. Names are unique.
func (s *Service) CreateMachine(ctx context.Context, in MachineInput) (*models.Machine, error) {
	m := in.machine()
	if err := validateMachine(m); err != nil {
		return nil, &OpError{Op: "create", Resource: "machine", Err: err}
	}
	err := s.run(ctx, "create", "machine", 0, func(ctx context.Context, r storage.Repository) error {
		return r.InsertMachine(ctx, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) GetMachine(ctx context.Context, id int64) (*models.Machine, error) {
	var m *models.Machine
	err := s.run(ctx, "get", "machine", id, func(ctx context.Context, r storage.Repository) error {
		var err error
		m, err = r.GetMachine(ctx, id)
		return notFound("machine", id, err)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMachines(ctx context.Context) ([]models.Machine, error) {
	var out []models.Machine
	err := s.run(ctx, "list", "machine", 0, func(ctx context.Context, r storage.Repository) error {
		var err error
		out, err = r.ListMachines(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Machine{}
	}
	return out, nil
}

// VariantInput describes a named variant of a machine.
type VariantInput struct {
	MachineID   int64             `json:"machine_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Difficulty  models.Difficulty `json:"difficulty,omitempty"`
}

// CreateVariant adds a variant to a machine. Names are unique per machine.
func (s *Service) CreateVariant(ctx context.Context, in VariantInput) (*models.MachineVariant, error) {
	v := models.MachineVariant{
		MachineID:   in.MachineID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Difficulty:  in.Difficulty,
	}
	if v.Difficulty == "" {
		v.Difficulty = models.DifficultyBeginner
	}
	var c checker
	c.check(v.MachineID > 0, "machine_id is required")
	c.check(v.Name != "", "name is required")
	c.check(v.Difficulty.IsValid(), "unknown difficulty %q", v.Difficulty)
	if err := c.err(); err != nil {
		return nil, &OpError{Op: "create", Resource: "machine variant", Err: err}
	}

	err := s.run(ctx, "create", "machine variant", 0, func(ctx context.Context, r storage.Repository) error {
		if _, err := r.GetMachine(ctx, v.MachineID); err != nil {
			return notFound("machine", v.MachineID, err)
		}
		return r.InsertVariant(ctx, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) ListVariants(ctx context.Context, machineID int64) ([]models.MachineVariant, error) {
	var out []models.MachineVariant
	err := s.run(ctx, "list", "machine variant", machineID, func(ctx context.Context, r storage.Repository) error {
		if _, err := r.GetMachine(ctx, machineID); err != nil {
			return notFound("machine", machineID, err)
		}
		var err error
		out, err = r.ListVariants(ctx, machineID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.MachineVariant{}
	}
	return out, nil
}

// ListTrainingModes returns the active training modes.
func (s *Service) ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error) {
	var out []models.TrainingMode
	err := s.run(ctx, "list", "training mode", 0, func(ctx context.Context, r storage.Repository) error {
		var err error
		out, err = r.ListTrainingModes(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
