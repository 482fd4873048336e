package workout_test

import (
	"testing"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveExerciseEntryDerivesMetrics verifies that tonnage, volume and 1RM
// are recomputed on save, ignoring supplied values, and that saving twice
// with unchanged inputs yields the same values.
func TestSaveExerciseEntryDerivesMetrics(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Chest Press", 2.5, 200)
	s := f.startedSession(nil)

	in := models.ExerciseEntry{
		SessionID:    s.ID,
		MachineID:    m.ID,
		SetsRealized: 3,
		RepsRealized: 30,
		WeightUsed:   ptr(100.0),
		Tonnage:      1, // ignored
		Status:       models.ExerciseCompleted,
	}
	first, err := f.svc.SaveExerciseEntry(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, first.Tonnage)
	assert.Equal(t, 9000.0, first.Volume)
	require.NotNil(t, first.EstimatedOneRM)
	assert.Equal(t, 133.33, *first.EstimatedOneRM)
	assert.Equal(t, 1, first.Position)

	second, err := f.svc.SaveExerciseEntry(f.ctx, *first)
	require.NoError(t, err)
	assert.Equal(t, first.Tonnage, second.Tonnage)
	assert.Equal(t, first.Volume, second.Volume)
	assert.Equal(t, *first.EstimatedOneRM, *second.EstimatedOneRM)
	assert.Equal(t, first.Position, second.Position)

	stored, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, stored.Exercises, 1)
	assert.Equal(t, 3000.0, stored.Exercises[0].Tonnage)
}

// TestZeroSetsGiveZeroMetricsAndNoOneRM verifies the zero vs. unknown
// distinction for an entry with nothing realized.
func TestZeroSetsGiveZeroMetricsAndNoOneRM(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Leg Press", 5, 300)
	s := f.startedSession(nil)

	e, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{
		SessionID:  s.ID,
		MachineID:  m.ID,
		WeightUsed: ptr(80.0),
	})
	require.NoError(t, err)
	assert.Zero(t, e.Tonnage)
	assert.Zero(t, e.Volume)
	assert.Nil(t, e.EstimatedOneRM)
	assert.Equal(t, models.ExercisePlanned, e.Status)
}

// TestSaveExerciseEntryValidation verifies that every problem is reported
// at once and nothing is stored.
func TestSaveExerciseEntryValidation(t *testing.T) {
	f := newFixture(t)
	s := f.startedSession(nil)

	_, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{
		SessionID:       s.ID,
		RepsRealized:    -1,
		WeightUsed:      ptr(0.0),
		PerceivedEffort: ptr(11),
	})
	require.ErrorIs(t, err, workout.ErrValidation)
	assert.Equal(t, workout.ReasonValidation, workout.Reason(err))
	assert.Len(t, workout.Problems(err), 5)

	got, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Exercises)
}

// TestSaveExerciseEntryPositionCollision verifies that positions are unique
// within a session.
func TestSaveExerciseEntryPositionCollision(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Lat Pulldown", 2.5, 150)
	s := f.startedSession(nil)

	_, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: m.ID, Position: 2})
	require.NoError(t, err)
	_, err = f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: m.ID, Position: 2})
	assert.ErrorIs(t, err, workout.ErrValidation)

	appended, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, appended.Position)
}

// TestSaveExerciseEntryUnknownMachine verifies the not-found outcome for a
// dangling machine reference.
func TestSaveExerciseEntryUnknownMachine(t *testing.T) {
	f := newFixture(t)
	s := f.startedSession(nil)

	_, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: 404})
	assert.ErrorIs(t, err, workout.ErrNotFound)
	assert.Equal(t, workout.ReasonNotFound, workout.Reason(err))
}

// TestVariantMustBelongToMachine verifies variant ownership is checked.
func TestVariantMustBelongToMachine(t *testing.T) {
	f := newFixture(t)
	press := f.machine("Shoulder Press", 2.5, 120)
	row := f.machine("Seated Row", 2.5, 150)
	v, err := f.svc.CreateVariant(f.ctx, workout.VariantInput{MachineID: row.ID, Name: "neutral grip"})
	require.NoError(t, err)
	s := f.startedSession(nil)

	_, err = f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: press.ID, VariantID: &v.ID})
	assert.ErrorIs(t, err, workout.ErrValidation)

	e, err := f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: row.ID, VariantID: &v.ID})
	require.NoError(t, err)
	assert.Equal(t, v.ID, *e.VariantID)
}

// TestCompleteExerciseEntryRollsUpSets verifies the roll-up of performed
// sets and the lazy tracker creation when the session has a mode.
func TestCompleteExerciseEntryRollsUpSets(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Leg Extension", 2.5, 150)
	mode := f.mode(models.ModeHypertrophy)
	s := f.startedSession(&mode.ID)

	e := f.performedEntry(s.ID, m.ID, 10, 40, 10, 10, 0)
	_, err := f.svc.RecordSetResult(f.ctx, workout.RecordSetInput{SetID: e.Sets[1].ID, ActualReps: 10, ActualWeight: ptr(42.5)})
	require.NoError(t, err)

	out, err := f.svc.CompleteExerciseEntry(f.ctx, e.ID, workout.CompleteInput{PerceivedEffort: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, models.ExerciseCompleted, out.Entry.Status)
	assert.Equal(t, 2, out.Entry.SetsRealized)
	assert.Equal(t, 20, out.Entry.RepsRealized)
	assert.Equal(t, 42.5, *out.Entry.WeightUsed)
	assert.Equal(t, 850.0, out.Entry.Tonnage)
	assert.Equal(t, 1700.0, out.Entry.Volume)
	assert.Equal(t, 8, *out.Entry.PerceivedEffort)

	// Both performed sets reached the plan; the skipped one does not count.
	require.NotNil(t, out.Progression)
	assert.True(t, out.Progression.Applied)
	assert.Equal(t, 100.0, out.Progression.SuccessRate)
	assert.Equal(t, 42.5, out.Progression.OldWeight)

	tr := f.tracker(m.ID, mode.ID)
	assert.Equal(t, 45.0, tr.CurrentWeight)
	assert.Equal(t, 4, tr.CurrentSets)
	assert.Equal(t, 12, tr.CurrentReps)
	assert.Equal(t, 1, tr.SessionCount)
	assert.Equal(t, e.ID, *tr.LastExerciseID)

	_, err = f.svc.CompleteExerciseEntry(f.ctx, e.ID, workout.CompleteInput{})
	assert.ErrorIs(t, err, workout.ErrConflict)
}

// TestCompleteExerciseEntryWithoutPerformedSets verifies that an entry with
// no performed set ends as failed with zero metrics.
func TestCompleteExerciseEntryWithoutPerformedSets(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Hip Abductor", 2.5, 100)
	s := f.startedSession(nil)
	e := f.performedEntry(s.ID, m.ID, 12, 30, 0, 0)

	out, err := f.svc.CompleteExerciseEntry(f.ctx, e.ID, workout.CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, models.ExerciseFailed, out.Entry.Status)
	assert.Zero(t, out.Entry.Tonnage)
	assert.Nil(t, out.Entry.EstimatedOneRM)
	assert.Nil(t, out.Progression)
}
