package models

// Machine catalog defaults.
const (
	DefaultWeightIncrement = 2.5
	DefaultMinWeight       = 5.0
	DefaultMaxWeight       = 200.0
	DefaultRecommendedSets = 3
	DefaultRestSeconds     = 90
)

// MachineCategory groups machines by the muscles they target.
type MachineCategory string

const (
	CategoryChest     MachineCategory = "chest"
	CategoryBack      MachineCategory = "back"
	CategoryShoulders MachineCategory = "shoulders"
	CategoryArms      MachineCategory = "arms"
	CategoryLegs      MachineCategory = "legs"
	CategoryCore      MachineCategory = "core"
	CategoryCardio    MachineCategory = "cardio"
	CategoryOther     MachineCategory = "other"
)

func (c MachineCategory) IsValid() bool {
	switch c {
	case CategoryChest, CategoryBack, CategoryShoulders, CategoryArms, CategoryLegs, CategoryCore, CategoryCardio, CategoryOther:
		return true
	}
	return false
}

// Difficulty is shared by machines and variants.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Machine is a piece of gym equipment with its loading constraints.
type Machine struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	EnglishName     string          `json:"english_name,omitempty"`
	Description     string          `json:"description,omitempty"`
	Category        MachineCategory `json:"category"`
	WeightIncrement float64         `json:"weight_increment"`
	MinWeight       float64         `json:"min_weight"`
	MaxWeight       float64         `json:"max_weight"`
	Difficulty      Difficulty      `json:"difficulty"`
	Available       bool            `json:"available"`
	UsageCount      int             `json:"usage_count"`
	Metadata
}

// NewMachine returns a machine with the catalog defaults applied.
func NewMachine(name string) Machine {
	return Machine{
		Name:            name,
		Category:        CategoryOther,
		WeightIncrement: DefaultWeightIncrement,
		MinWeight:       DefaultMinWeight,
		MaxWeight:       DefaultMaxWeight,
		Difficulty:      DifficultyBeginner,
		Available:       true,
	}
}

// MachineVariant is an alternative grip or position on a machine.
type MachineVariant struct {
	ID          int64      `json:"id"`
	MachineID   int64      `json:"machine_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Metadata
}

// TrainingMode describes a training goal and its default prescription.
type TrainingMode struct {
	ID              int64            `json:"id"`
	Code            TrainingModeCode `json:"code"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	RecommendedSets int              `json:"recommended_sets"`
	RepsMin         int              `json:"reps_min"`
	RepsMax         int              `json:"reps_max"`
	RestSeconds     int              `json:"rest_seconds"`
	OneRMPctMin     float64          `json:"one_rm_pct_min"`
	OneRMPctMax     float64          `json:"one_rm_pct_max"`
	Active          bool             `json:"active"`
	Metadata
}
