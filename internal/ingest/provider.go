// Package ingest holds what every export importer shares.
package ingest

import "github.com/google/uuid"

// Result holds the outcome of an ingest operation.
type Result struct {
	BatchID string `json:"batch_id"`

	SessionsReceived int `json:"sessions_received"`
	SessionsInserted int `json:"sessions_inserted"`
	SessionsSkipped  int `json:"sessions_skipped"`

	ExercisesInserted int `json:"exercises_inserted"`

	SetsReceived   int `json:"sets_received"`
	SetsInserted   int `json:"sets_inserted"`
	WarmupsSkipped int `json:"warmups_skipped"`

	ProgressionsApplied int `json:"progressions_applied"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult returns an empty result under a fresh batch ID. The batch ID
// is logged with every session of the import.
func NewResult() *Result {
	return &Result{BatchID: uuid.NewString()}
}
