package models

import (
	"math"
	"time"
)

// SetRecord is one set of one exercise entry: what was planned and what was
// actually performed.
type SetRecord struct {
	ID              int64     `json:"id"`
	ExerciseID      int64     `json:"exercise_id"`
	SetNumber       int       `json:"set_number"`
	PlannedReps     int       `json:"planned_reps"`
	PlannedWeight   float64   `json:"planned_weight"`
	PlannedRestSec  int       `json:"planned_rest_sec"`
	ActualReps      int       `json:"actual_reps"`
	ActualWeight    *float64  `json:"actual_weight,omitempty"`
	ActualRestSec   *int      `json:"actual_rest_sec,omitempty"`
	Status          SetStatus `json:"status"`
	PerceivedEffort *int      `json:"perceived_effort,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	Metadata
}

// IsSuccessful reports whether the planned repetitions were reached.
func (s SetRecord) IsSuccessful() bool {
	return s.ActualReps >= s.PlannedReps
}

// SuccessRatio is actual/planned reps capped at 1, or 0 without a plan.
func (s SetRecord) SuccessRatio() float64 {
	if s.PlannedReps <= 0 {
		return 0
	}
	return math.Min(1, float64(s.ActualReps)/float64(s.PlannedReps))
}

// Performed reports whether at least one repetition was done.
func (s SetRecord) Performed() bool {
	return s.ActualReps > 0
}

// ExerciseEntry is one machine-based exercise inside a session. Tonnage,
// Volume and EstimatedOneRM are derived from the realized fields and are
// rewritten on every save.
type ExerciseEntry struct {
	ID              int64          `json:"id"`
	SessionID       int64          `json:"session_id"`
	MachineID       int64          `json:"machine_id"`
	VariantID       *int64         `json:"variant_id,omitempty"`
	Position        int            `json:"position"`
	PlannedSets     int            `json:"planned_sets"`
	PlannedReps     int            `json:"planned_reps"`
	PlannedWeight   float64        `json:"planned_weight"`
	PlannedRestSec  int            `json:"planned_rest_sec"`
	Status          ExerciseStatus `json:"status"`
	SetsRealized    int            `json:"sets_realized"`
	RepsRealized    int            `json:"reps_realized"`
	WeightUsed      *float64       `json:"weight_used,omitempty"`
	Tonnage         float64        `json:"tonnage"`
	Volume          float64        `json:"volume"`
	EstimatedOneRM  *float64       `json:"estimated_1rm"`
	DurationSec     *int           `json:"duration_sec,omitempty"`
	PerceivedEffort *int           `json:"perceived_effort,omitempty"`
	Comment         string         `json:"comment,omitempty"`

	// ProgressionEvaluatedAt is set once the entry went through progression.
	ProgressionEvaluatedAt *time.Time `json:"progression_evaluated_at,omitempty"`
	Metadata

	Sets []SetRecord `json:"sets,omitempty"`
}

// Session is one workout of one user.
type Session struct {
	ID                 int64         `json:"id"`
	UserID             int64         `json:"user_id"`
	TrainingModeID     *int64        `json:"training_mode_id,omitempty"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	ScheduledAt        *time.Time    `json:"scheduled_at,omitempty"`
	StartedAt          *time.Time    `json:"started_at,omitempty"`
	EndedAt            *time.Time    `json:"ended_at,omitempty"`
	PlannedDurationMin *int          `json:"planned_duration_min,omitempty"`
	Status             SessionStatus `json:"status"`
	PerceivedEffort    *int          `json:"perceived_effort,omitempty"`
	Difficulty         *int          `json:"difficulty,omitempty"`
	Comment            string        `json:"comment,omitempty"`
	BodyWeight         *float64      `json:"body_weight,omitempty"`
	RestingHeartRate   *int          `json:"resting_heart_rate,omitempty"`
	PeakHeartRate      *int          `json:"peak_heart_rate,omitempty"`
	VolumeTotal        float64       `json:"volume_total"`
	TonnageTotal       float64       `json:"tonnage_total"`
	ExerciseCount      int           `json:"exercise_count"`
	SetCount           int           `json:"set_count"`
	Metadata

	Exercises []ExerciseEntry `json:"exercises,omitempty"`
}

// ActualDurationMinutes returns whole minutes between start and end, or nil
// unless both timestamps are present.
func (s Session) ActualDurationMinutes() *int {
	if s.StartedAt == nil || s.EndedAt == nil {
		return nil
	}
	m := int(s.EndedAt.Sub(*s.StartedAt) / time.Minute)
	return &m
}

// Locked reports whether the session's exercises and sets are frozen.
func (s Session) Locked() bool {
	return s.Status == SessionCompleted
}
