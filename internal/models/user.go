package models

import "time"

// Goal is the user's stated training objective.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalEndurance   Goal = "endurance"
	GoalStrength    Goal = "strength"
	GoalMaintenance Goal = "maintenance"
)

func (g Goal) IsValid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalEndurance, GoalStrength, GoalMaintenance:
		return true
	}
	return false
}

// Level is the user's self-assessed experience.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// User is an account and its training profile.
type User struct {
	ID              int64     `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	BodyWeight      *float64  `json:"body_weight,omitempty"`
	HeightCm        *int      `json:"height_cm,omitempty"`
	Goal            Goal      `json:"goal"`
	Level           Level     `json:"level"`
	PreferredModeID *int64    `json:"preferred_mode_id,omitempty"`
	LastSeen        time.Time `json:"last_seen"`
	Metadata
}

// UserStats summarizes a user's completed training.
type UserStats struct {
	CompletedSessions int            `json:"completed_sessions"`
	TotalMinutes      int            `json:"total_minutes"`
	EstimatedCalories int            `json:"estimated_calories"`
	ExcellentSessions int            `json:"excellent_sessions"`
	RecordWeight      float64        `json:"record_weight"`
	FavoriteMachines  []MachineUsage `json:"favorite_machines"`
	AvgProgression    float64        `json:"avg_progression"`
}

// MachineUsage counts how many exercise entries used a machine.
type MachineUsage struct {
	MachineID int64  `json:"machine_id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}
