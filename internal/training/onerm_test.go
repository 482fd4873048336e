package training

import "testing"

// TestEstimateOneRM verifies the Brzycki relation and its domain boundary:
// defined strictly below 37 reps, absent at 37 and beyond, and absent for
// zero or negative inputs.
func TestEstimateOneRM(t *testing.T) {
	cases := []struct {
		name   string
		weight float64
		reps   float64
		want   *float64
	}{
		{"ten reps", 100, 10, ptr(133.33)},
		{"single rep", 100, 1, ptr(100)},
		{"last defined rep", 100, 36, ptr(3600)},
		{"fractional mean reps", 80, 8.5, ptr(101.05)},
		{"divergence point", 100, 37, nil},
		{"beyond divergence", 100, 40, nil},
		{"zero reps", 100, 0, nil},
		{"zero weight", 0, 10, nil},
		{"negative weight", -20, 10, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateOneRM(tc.weight, tc.reps)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("EstimateOneRM(%v, %v) = %v, want nil", tc.weight, tc.reps, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("EstimateOneRM(%v, %v) = nil, want %v", tc.weight, tc.reps, *tc.want)
			}
			if *got != *tc.want {
				t.Errorf("EstimateOneRM(%v, %v) = %v, want %v", tc.weight, tc.reps, *got, *tc.want)
			}
			if *got <= 0 {
				t.Errorf("EstimateOneRM(%v, %v) = %v, want positive", tc.weight, tc.reps, *got)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
