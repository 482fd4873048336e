package models

import "testing"

// TestNormalizeModeCode_Canonical verifies that canonical codes pass through
// unchanged.
func TestNormalizeModeCode_Canonical(t *testing.T) {
	for _, code := range []TrainingModeCode{ModeStrength, ModeHypertrophy, ModeCutting, ModeEndurance, ModePowerlifting} {
		got, known := NormalizeModeCode(string(code))
		if !known {
			t.Errorf("NormalizeModeCode(%q): expected known=true", code)
		}
		if got != code {
			t.Errorf("NormalizeModeCode(%q) = %q, want %q", code, got, code)
		}
	}
}

// TestNormalizeModeCode_French verifies that the French mode names used by
// older clients map to their canonical codes, regardless of case.
func TestNormalizeModeCode_French(t *testing.T) {
	cases := []struct {
		input string
		want  TrainingModeCode
	}{
		{"FORCE", ModeStrength},
		{"PRISE_MASSE", ModeHypertrophy},
		{"Prise de masse", ModeHypertrophy},
		{"SECHE", ModeCutting},
		{"sèche", ModeCutting},
		{"ENDURANCE", ModeEndurance},
		{"POWERLIFTING", ModePowerlifting},
	}
	for _, tc := range cases {
		got, known := NormalizeModeCode(tc.input)
		if !known {
			t.Errorf("NormalizeModeCode(%q): expected known=true", tc.input)
		}
		if got != tc.want {
			t.Errorf("NormalizeModeCode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// TestNormalizeModeCode_Whitespace verifies surrounding whitespace is ignored.
func TestNormalizeModeCode_Whitespace(t *testing.T) {
	got, known := NormalizeModeCode("  Strength \n")
	if !known || got != ModeStrength {
		t.Errorf("NormalizeModeCode with whitespace = (%q, %v), want (%q, true)", got, known, ModeStrength)
	}
}

// TestNormalizeModeCode_Unknown verifies that unrecognized names are returned
// as-is with known=false.
func TestNormalizeModeCode_Unknown(t *testing.T) {
	got, known := NormalizeModeCode("Crossfit")
	if known {
		t.Error("expected known=false for unrecognized mode")
	}
	if got != "Crossfit" {
		t.Errorf("NormalizeModeCode(%q) = %q, want original string", "Crossfit", got)
	}
}

// TestSessionStatusTransition walks the session state machine, including the
// rejected transitions.
func TestSessionStatusTransition(t *testing.T) {
	cases := []struct {
		from   SessionStatus
		action string
		want   SessionStatus
		ok     bool
	}{
		{SessionPlanned, "start", SessionInProgress, true},
		{SessionInProgress, "start", SessionInProgress, false},
		{SessionInProgress, "finish", SessionCompleted, true},
		{SessionPlanned, "finish", SessionPlanned, false},
		{SessionCompleted, "finish", SessionCompleted, false},
		{SessionCancelled, "finish", SessionCancelled, false},
		{SessionInProgress, "suspend", SessionSuspended, true},
		{SessionSuspended, "resume", SessionInProgress, true},
		{SessionSuspended, "cancel", SessionCancelled, true},
		{SessionCompleted, "cancel", SessionCompleted, false},
		{SessionPlanned, "explode", SessionPlanned, false},
	}
	for _, tc := range cases {
		got, ok := tc.from.Transition(tc.action)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s.Transition(%q) = (%s, %v), want (%s, %v)", tc.from, tc.action, got, ok, tc.want, tc.ok)
		}
	}
}

// TestSetRecordSuccessRatio verifies the per-set ratio is capped at 1 and is
// zero without planned reps.
func TestSetRecordSuccessRatio(t *testing.T) {
	cases := []struct {
		planned, actual int
		ratio           float64
		successful      bool
	}{
		{10, 12, 1.0, true},
		{10, 10, 1.0, true},
		{10, 5, 0.5, false},
		{10, 0, 0, false},
		{0, 5, 0, true},
	}
	for _, tc := range cases {
		s := SetRecord{PlannedReps: tc.planned, ActualReps: tc.actual}
		if got := s.SuccessRatio(); got != tc.ratio {
			t.Errorf("SuccessRatio(%d/%d) = %v, want %v", tc.actual, tc.planned, got, tc.ratio)
		}
		if got := s.IsSuccessful(); got != tc.successful {
			t.Errorf("IsSuccessful(%d/%d) = %v, want %v", tc.actual, tc.planned, got, tc.successful)
		}
	}
}
