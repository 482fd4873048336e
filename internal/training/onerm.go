// Package training holds the pure performance calculations: one-rep-max
// estimation, exercise and session aggregation, and the progression policy.
package training

import "math"

// BrzyckiRepLimit is the repetition count at which the Brzycki relation
// diverges. Estimates are only defined strictly below it.
const BrzyckiRepLimit = 37

// EstimateOneRM estimates the one-repetition maximum with the Brzycki
// relation weight × 36 / (37 − reps), rounded to 2 decimals. It returns nil
// when the estimate is not computable: weight ≤ 0, reps ≤ 0 or reps ≥ 37.
func EstimateOneRM(weight, reps float64) *float64 {
	if weight <= 0 || reps <= 0 || reps >= BrzyckiRepLimit {
		return nil
	}
	v := round2(weight * 36 / (BrzyckiRepLimit - reps))
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
