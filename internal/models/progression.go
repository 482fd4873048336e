package models

import "time"

// DefaultSuccessThreshold is the success rate (percent) at or above which a
// tracker authorizes an automatic weight increment.
const DefaultSuccessThreshold = 90.0

// ProgressionTracker holds the working weight and progression policy of one
// user on one machine in one training mode.
type ProgressionTracker struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	MachineID         int64      `json:"machine_id"`
	TrainingModeID    int64      `json:"training_mode_id"`
	CurrentWeight     float64    `json:"current_weight"`
	CurrentSets       int        `json:"current_sets"`
	CurrentReps       int        `json:"current_reps"`
	LastSessionID     *int64     `json:"last_session_id,omitempty"`
	LastExerciseID    *int64     `json:"last_exercise_id,omitempty"`
	LastOneRM         *float64   `json:"last_1rm,omitempty"`
	SessionCount      int        `json:"session_count"`
	TotalProgression  float64    `json:"total_progression"`
	SuccessRate       float64    `json:"success_rate"`
	AutoIncrement     bool       `json:"auto_increment"`
	SuccessThreshold  float64    `json:"success_threshold"`
	FirstUsedAt       time.Time  `json:"first_used_at"`
	LastProgressionAt *time.Time `json:"last_progression_at,omitempty"`
	Metadata
}

// ProgressionResult is the outcome of one progression evaluation.
type ProgressionResult struct {
	Applied     bool    `json:"applied"`
	OldWeight   float64 `json:"old_weight"`
	NewWeight   float64 `json:"new_weight"`
	SuccessRate float64 `json:"success_rate"`
	Reason      string  `json:"reason"`
}

// Recommendation is the planning bundle for the next session on a machine.
type Recommendation struct {
	MachineID      int64   `json:"machine_id"`
	TrainingModeID int64   `json:"training_mode_id"`
	Weight         float64 `json:"weight"`
	Sets           int     `json:"sets"`
	Reps           int     `json:"reps"`
	RestSeconds    int     `json:"rest_seconds"`
}
