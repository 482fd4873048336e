package training

import "github.com/Worcesters/basicfit/internal/models"

// Reasons reported with a progression decision.
const (
	ReasonApplied        = "applied"
	ReasonNoSets         = "no_sets"
	ReasonAutoDisabled   = "auto_increment_disabled"
	ReasonBelowThreshold = "below_threshold"
	ReasonMaxWeight      = "max_weight_reached"
	ReasonNoTrainingMode = "no_training_mode"
)

// defaultRecommendedReps applies to modes missing from recommendedReps.
const defaultRecommendedReps = 10

// recommendedReps is the fixed rep prescription per training mode.
var recommendedReps = map[models.TrainingModeCode]int{
	models.ModeStrength:     5,
	models.ModeHypertrophy:  12,
	models.ModeCutting:      15,
	models.ModeEndurance:    20,
	models.ModePowerlifting: 3,
}

// RecommendedReps returns the rep target for a training mode.
func RecommendedReps(code models.TrainingModeCode) int {
	if r, ok := recommendedReps[code]; ok {
		return r
	}
	return defaultRecommendedReps
}

// SuccessRate is the share of successful sets among the sets the entry
// realized, in [0, 1]. It is 0 when no set was realized.
func SuccessRate(e models.ExerciseEntry, sets []models.SetRecord) float64 {
	return SuccessPercent(e, sets) / 100
}

// SuccessPercent is SuccessRate expressed in percent. Set records that were
// never performed do not count against the entry. The division happens
// last so that 9 successes out of 10 yield exactly 90.
func SuccessPercent(e models.ExerciseEntry, sets []models.SetRecord) float64 {
	if e.SetsRealized <= 0 {
		return 0
	}
	ok := 0
	for _, s := range sets {
		if s.Performed() && s.IsSuccessful() {
			ok++
		}
	}
	ok = min(ok, e.SetsRealized)
	return float64(ok*100) / float64(e.SetsRealized)
}

// Decision is the authorization step of a progression evaluation.
type Decision struct {
	Authorized     bool
	SuccessPercent float64
	Reason         string
}

// Decide applies the threshold policy of t to an entry and its sets.
func Decide(t models.ProgressionTracker, e models.ExerciseEntry, sets []models.SetRecord) Decision {
	pct := SuccessPercent(e, sets)
	d := Decision{SuccessPercent: pct}
	switch {
	case e.SetsRealized <= 0:
		d.Reason = ReasonNoSets
	case !t.AutoIncrement:
		d.Reason = ReasonAutoDisabled
	case pct < t.SuccessThreshold:
		d.Reason = ReasonBelowThreshold
	default:
		d.Authorized = true
	}
	return d
}

// ApplyIncrement raises the tracker's working weight by the machine
// increment when the result stays within the machine's maximum. The tracker
// is left untouched otherwise. The returned result reports both weights.
func ApplyIncrement(t *models.ProgressionTracker, m models.Machine, d Decision) models.ProgressionResult {
	res := models.ProgressionResult{
		OldWeight:   t.CurrentWeight,
		NewWeight:   t.CurrentWeight,
		SuccessRate: round2(d.SuccessPercent),
		Reason:      d.Reason,
	}
	if !d.Authorized {
		return res
	}
	next := t.CurrentWeight + m.WeightIncrement
	if next > m.MaxWeight {
		res.Reason = ReasonMaxWeight
		return res
	}
	t.CurrentWeight = next
	t.TotalProgression += m.WeightIncrement
	res.Applied = true
	res.NewWeight = next
	res.Reason = ReasonApplied
	return res
}

// Recommend builds the next-session prescription from a tracker and its mode.
func Recommend(t models.ProgressionTracker, mode models.TrainingMode) models.Recommendation {
	return models.Recommendation{
		MachineID:      t.MachineID,
		TrainingModeID: mode.ID,
		Weight:         t.CurrentWeight,
		Sets:           mode.RecommendedSets,
		Reps:           RecommendedReps(mode.Code),
		RestSeconds:    mode.RestSeconds,
	}
}
