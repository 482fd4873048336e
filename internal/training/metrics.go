package training

import "github.com/Worcesters/basicfit/internal/models"

// ExerciseMetrics are the values derived from an entry's realized fields.
type ExerciseMetrics struct {
	Tonnage        float64
	Volume         float64
	EstimatedOneRM *float64
}

// DeriveExercise computes tonnage, volume and estimated 1RM from the
// realized sets, reps and weight of e. Tonnage and volume are 0 when weight
// or reps are missing; the 1RM is nil whenever it cannot be computed.
func DeriveExercise(e models.ExerciseEntry) ExerciseMetrics {
	var m ExerciseMetrics
	if e.WeightUsed == nil || *e.WeightUsed <= 0 || e.RepsRealized <= 0 {
		return m
	}
	w := *e.WeightUsed
	m.Tonnage = w * float64(e.RepsRealized)
	m.Volume = m.Tonnage * float64(e.SetsRealized)
	if e.SetsRealized > 0 {
		meanReps := float64(e.RepsRealized) / float64(e.SetsRealized)
		m.EstimatedOneRM = EstimateOneRM(w, meanReps)
	}
	return m
}

// ApplyExerciseMetrics overwrites the derived fields of e.
func ApplyExerciseMetrics(e *models.ExerciseEntry) {
	m := DeriveExercise(*e)
	e.Tonnage = m.Tonnage
	e.Volume = m.Volume
	e.EstimatedOneRM = m.EstimatedOneRM
}

// SessionAggregates are the totals stored on a session when it finishes.
type SessionAggregates struct {
	ExerciseCount int
	SetCount      int
	VolumeTotal   float64
	TonnageTotal  float64
}

// AggregateSession sums the stored metrics of the given entries. The set
// count is the number of realized sets.
func AggregateSession(entries []models.ExerciseEntry) SessionAggregates {
	a := SessionAggregates{ExerciseCount: len(entries)}
	for _, e := range entries {
		a.SetCount += e.SetsRealized
		a.VolumeTotal += e.Volume
		a.TonnageTotal += e.Tonnage
	}
	return a
}

// ApplySessionAggregates overwrites the aggregate fields of s.
func ApplySessionAggregates(s *models.Session, a SessionAggregates) {
	s.ExerciseCount = a.ExerciseCount
	s.SetCount = a.SetCount
	s.VolumeTotal = a.VolumeTotal
	s.TonnageTotal = a.TonnageTotal
}

// RollUpSets fills the realized fields of e from its set records: performed
// sets, their summed reps, and the heaviest weight used. Sets without an
// actual weight count at their planned weight.
func RollUpSets(e *models.ExerciseEntry, sets []models.SetRecord) {
	e.SetsRealized = 0
	e.RepsRealized = 0
	var top float64
	for _, s := range sets {
		if !s.Performed() {
			continue
		}
		e.SetsRealized++
		e.RepsRealized += s.ActualReps
		w := s.PlannedWeight
		if s.ActualWeight != nil {
			w = *s.ActualWeight
		}
		if w > top {
			top = w
		}
	}
	if top > 0 {
		e.WeightUsed = &top
	} else if e.SetsRealized == 0 {
		e.WeightUsed = nil
	}
}
