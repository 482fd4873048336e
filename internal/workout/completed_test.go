package workout_test

import (
	"testing"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/training"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedInput(userID int64) workout.CompletedSessionInput {
	start := time.Date(2026, 4, 20, 7, 0, 0, 0, time.UTC)
	end := start.Add(50 * time.Minute)
	return workout.CompletedSessionInput{
		UserID:    userID,
		Name:      "Morning strength",
		ModeCode:  "Strength",
		StartedAt: start,
		EndedAt:   &end,
		Exercises: []workout.CompletedExerciseInput{
			{
				MachineName: "Leg Press",
				Sets: []workout.CompletedSet{
					{Reps: 5, Weight: 100}, {Reps: 5, Weight: 100}, {Reps: 5, Weight: 100},
				},
			},
			{
				MachineName:     "Cable Fly",
				PerceivedEffort: ptr(9),
				Sets: []workout.CompletedSet{
					{Reps: 5, Weight: 20, PlannedReps: 8}, {Reps: 0, Weight: 20, PlannedReps: 8},
				},
			},
		},
	}
}

// TestSaveCompletedSession verifies that a free-form workout is stored as a
// completed session with entries, sets, aggregates and progressions.
func TestSaveCompletedSession(t *testing.T) {
	f := newFixture(t)
	press := f.machine("Leg Press", 5, 300)

	out, err := f.svc.SaveCompletedSession(f.ctx, completedInput(f.userID))
	require.NoError(t, err)
	assert.False(t, out.Skipped)

	sess := out.Session
	assert.Equal(t, models.SessionCompleted, sess.Status)
	require.NotNil(t, sess.TrainingModeID)
	assert.Equal(t, f.mode(models.ModeStrength).ID, *sess.TrainingModeID)
	assert.Equal(t, 50, *sess.ActualDurationMinutes())
	assert.Equal(t, 2, sess.ExerciseCount)
	assert.Equal(t, 4, sess.SetCount)
	assert.Equal(t, 1600.0, sess.TonnageTotal)

	require.Len(t, sess.Exercises, 2)
	leg := sess.Exercises[0]
	assert.Equal(t, press.ID, leg.MachineID)
	assert.Equal(t, 1, leg.Position)
	assert.Equal(t, models.ExerciseCompleted, leg.Status)
	assert.Equal(t, 1500.0, leg.Tonnage)
	require.Len(t, leg.Sets, 3)
	assert.Equal(t, models.SetSucceeded, leg.Sets[2].Status)

	fly := sess.Exercises[1]
	assert.NotEqual(t, press.ID, fly.MachineID)
	assert.Equal(t, 2, fly.Position)
	assert.Equal(t, 1, fly.SetsRealized)
	assert.Equal(t, models.SetPartial, fly.Sets[0].Status)
	assert.Equal(t, models.SetFailed, fly.Sets[1].Status)

	created, err := f.svc.GetMachine(f.ctx, fly.MachineID)
	require.NoError(t, err)
	assert.Equal(t, "Cable Fly", created.Name)
	assert.Equal(t, models.DefaultWeightIncrement, created.WeightIncrement)

	require.Len(t, out.Progressions, 2)
	assert.True(t, out.Progressions[0].Applied)
	assert.Equal(t, 105.0, out.Progressions[0].NewWeight)
	assert.False(t, out.Progressions[1].Applied)
	assert.Equal(t, training.ReasonBelowThreshold, out.Progressions[1].Reason)
}

// TestSaveCompletedSessionSkipExisting verifies that a repeated import of
// the same workout returns the stored session.
func TestSaveCompletedSessionSkipExisting(t *testing.T) {
	f := newFixture(t)
	in := completedInput(f.userID)
	in.SkipExisting = true

	first, err := f.svc.SaveCompletedSession(f.ctx, in)
	require.NoError(t, err)

	again, err := f.svc.SaveCompletedSession(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, first.Session.ID, again.Session.ID)
	assert.Empty(t, again.Progressions)

	page, err := f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID})
	require.NoError(t, err)
	assert.Len(t, page.Sessions, 1)
}

// TestSaveCompletedSessionValidation verifies that every problem of the
// input is reported.
func TestSaveCompletedSessionValidation(t *testing.T) {
	f := newFixture(t)
	in := completedInput(f.userID)
	in.ModeCode = "yoga"
	in.Exercises[0].MachineName = ""
	in.Exercises[1].Sets[0].Reps = -2

	_, err := f.svc.SaveCompletedSession(f.ctx, in)
	require.ErrorIs(t, err, workout.ErrValidation)
	assert.Len(t, workout.Problems(err), 3)

	_, err = f.svc.SaveCompletedSession(f.ctx, workout.CompletedSessionInput{UserID: f.userID, Name: "x", StartedAt: testNow})
	assert.ErrorIs(t, err, workout.ErrValidation)
}

// TestSaveCompletedSessionRollsBack verifies that an unknown machine ID
// leaves nothing behind.
func TestSaveCompletedSessionRollsBack(t *testing.T) {
	f := newFixture(t)
	in := completedInput(f.userID)
	in.Exercises[1].MachineName = ""
	in.Exercises[1].MachineID = 4242

	_, err := f.svc.SaveCompletedSession(f.ctx, in)
	require.ErrorIs(t, err, workout.ErrNotFound)

	page, err := f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID})
	require.NoError(t, err)
	assert.Empty(t, page.Sessions)
	machines, err := f.svc.ListMachines(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, machines)
}
