package workout_test

import (
	"testing"

	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addRealized saves an entry with realized values directly.
func (f *fixture) addRealized(sessionID, machineID int64, sets, reps int, weight float64) *models.ExerciseEntry {
	f.t.Helper()
	e := models.ExerciseEntry{SessionID: sessionID, MachineID: machineID, SetsRealized: sets, RepsRealized: reps, Status: models.ExerciseCompleted}
	if weight > 0 {
		e.WeightUsed = &weight
	}
	if sets == 0 {
		e.Status = models.ExerciseFailed
	}
	out, err := f.svc.SaveExerciseEntry(f.ctx, e)
	require.NoError(f.t, err)
	return out
}

// TestFinishSessionAggregates verifies the totals stored on finish.
func TestFinishSessionAggregates(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Pec Deck", 2.5, 150)
	s := f.startedSession(nil)
	f.addRealized(s.ID, m.ID, 3, 10, 10)
	f.addRealized(s.ID, m.ID, 4, 10, 15)
	f.addRealized(s.ID, m.ID, 0, 0, 0)

	done, err := f.svc.FinishSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, done.Status)
	assert.Equal(t, 250.0, done.TonnageTotal)
	assert.Equal(t, 900.0, done.VolumeTotal)
	assert.Equal(t, 7, done.SetCount)
	assert.Equal(t, 3, done.ExerciseCount)
	require.NotNil(t, done.EndedAt)
	assert.True(t, done.EndedAt.Equal(testNow))
}

// TestAggregatesAreNotRecomputedOnRead verifies that reading a completed
// session returns the totals stored at finish time.
func TestAggregatesAreNotRecomputedOnRead(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Cable Row", 2.5, 150)
	s := f.startedSession(nil)
	e := f.addRealized(s.ID, m.ID, 3, 10, 10)
	_, err := f.svc.FinishSession(f.ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.InTx(f.ctx, func(r storage.Repository) error {
		e.Tonnage = 9999
		return r.UpdateExercise(f.ctx, e)
	}))

	got, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.TonnageTotal)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, 9999.0, got.Exercises[0].Tonnage)
}

// TestFinishSessionReferentialFaultRollsBack verifies that a failure to load
// the entries leaves the session untouched.
func TestFinishSessionReferentialFaultRollsBack(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Calf Raise", 5, 200)
	s := f.startedSession(nil)
	f.addRealized(s.ID, m.ID, 3, 30, 40)

	faulty := workout.New(faultyStore{db: f.db}, logging.Discard())
	_, err := faulty.FinishSession(f.ctx, s.ID)
	require.ErrorIs(t, err, workout.ErrReferential)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, workout.ReasonReferential, workout.Reason(err))

	got, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, got.Status)
	assert.Nil(t, got.EndedAt)
	assert.Zero(t, got.TonnageTotal)
	assert.Zero(t, got.ExerciseCount)
}

// TestFinishCancelledSessionIsConflict verifies the transition guard.
func TestFinishCancelledSessionIsConflict(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Leg Curl", 2.5, 120)
	s := f.startedSession(nil)
	f.addRealized(s.ID, m.ID, 3, 30, 20)
	_, err := f.svc.CancelSession(f.ctx, s.ID)
	require.NoError(t, err)

	_, err = f.svc.FinishSession(f.ctx, s.ID)
	require.ErrorIs(t, err, workout.ErrConflict)

	got, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, got.Status)
	assert.Zero(t, got.TonnageTotal)
	assert.Zero(t, got.SetCount)
}

// TestSessionTransitions walks the allowed and rejected state changes.
func TestSessionTransitions(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.CreateSession(f.ctx, workout.CreateSessionInput{UserID: f.userID, Name: "push day"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionPlanned, s.Status)

	_, err = f.svc.FinishSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "finish from planned")
	_, err = f.svc.SuspendSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "suspend from planned")

	s, err = f.svc.StartSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, s.Status)
	require.NotNil(t, s.StartedAt)
	_, err = f.svc.StartSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "double start")

	s, err = f.svc.SuspendSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionSuspended, s.Status)
	_, err = f.svc.FinishSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "finish while suspended")

	s, err = f.svc.ResumeSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, s.Status)

	s, err = f.svc.FinishSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, s.Status)
	_, err = f.svc.FinishSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "double finish")
	_, err = f.svc.CancelSession(f.ctx, s.ID)
	assert.ErrorIs(t, err, workout.ErrConflict, "cancel completed")
}

// TestCompletedSessionRejectsEntryWrites verifies that entries of a
// completed session are frozen.
func TestCompletedSessionRejectsEntryWrites(t *testing.T) {
	f := newFixture(t)
	m := f.machine("Dip Machine", 5, 150)
	s := f.startedSession(nil)
	e := f.performedEntry(s.ID, m.ID, 8, 50, 8)
	_, err := f.svc.FinishSession(f.ctx, s.ID)
	require.NoError(t, err)

	_, err = f.svc.SaveExerciseEntry(f.ctx, models.ExerciseEntry{SessionID: s.ID, MachineID: m.ID})
	assert.ErrorIs(t, err, workout.ErrConflict)
	_, err = f.svc.RecordSetResult(f.ctx, workout.RecordSetInput{SetID: e.Sets[0].ID, ActualReps: 2})
	assert.ErrorIs(t, err, workout.ErrConflict)
	_, err = f.svc.CreateSetRecord(f.ctx, workout.CreateSetInput{ExerciseID: e.ID, PlannedReps: 8})
	assert.ErrorIs(t, err, workout.ErrConflict)
	_, err = f.svc.CompleteExerciseEntry(f.ctx, e.ID, workout.CompleteInput{})
	assert.ErrorIs(t, err, workout.ErrConflict)
}

// TestGetSessionNotFound verifies the outcome for an unknown session.
func TestGetSessionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetSession(f.ctx, 12345)
	assert.ErrorIs(t, err, workout.ErrNotFound)
	_, err = f.svc.StartSession(f.ctx, 12345)
	assert.ErrorIs(t, err, workout.ErrNotFound)
}

// TestCreateSessionValidation verifies input checks and references.
func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSession(f.ctx, workout.CreateSessionInput{Name: "  ", PlannedDurationMin: ptr(0)})
	require.ErrorIs(t, err, workout.ErrValidation)
	assert.Len(t, workout.Problems(err), 3)

	_, err = f.svc.CreateSession(f.ctx, workout.CreateSessionInput{UserID: f.userID + 100, Name: "legs"})
	assert.ErrorIs(t, err, workout.ErrNotFound)

	_, err = f.svc.CreateSession(f.ctx, workout.CreateSessionInput{UserID: f.userID, Name: "legs", TrainingModeID: ptr(int64(999))})
	assert.ErrorIs(t, err, workout.ErrNotFound)
}

// TestListSessionsPaging verifies page bounds and the has_more flag.
func TestListSessionsPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.startedSession(nil)
	}

	page, err := f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Sessions, 2)
	assert.True(t, page.HasMore)

	page, err = f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Sessions, 1)
	assert.False(t, page.HasMore)

	page, err = f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID})
	require.NoError(t, err)
	assert.Equal(t, workout.DefaultPageSize, page.Limit)
	assert.Len(t, page.Sessions, 5)

	page, err = f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID, Status: models.SessionCompleted})
	require.NoError(t, err)
	assert.NotNil(t, page.Sessions)
	assert.Empty(t, page.Sessions)

	_, err = f.svc.ListSessions(f.ctx, workout.ListSessionsInput{UserID: f.userID, Limit: workout.MaxPageSize + 1})
	assert.ErrorIs(t, err, workout.ErrValidation)
}

// TestRecordSessionFeedback verifies partial updates and heart rate checks.
func TestRecordSessionFeedback(t *testing.T) {
	f := newFixture(t)
	s := f.startedSession(nil)

	got, err := f.svc.RecordSessionFeedback(f.ctx, s.ID, workout.Feedback{PerceivedEffort: ptr(7), RestingHeartRate: ptr(60)})
	require.NoError(t, err)
	assert.Equal(t, 7, *got.PerceivedEffort)

	got, err = f.svc.RecordSessionFeedback(f.ctx, s.ID, workout.Feedback{Comment: ptr("felt strong")})
	require.NoError(t, err)
	assert.Equal(t, 7, *got.PerceivedEffort)
	assert.Equal(t, "felt strong", got.Comment)

	_, err = f.svc.RecordSessionFeedback(f.ctx, s.ID, workout.Feedback{PeakHeartRate: ptr(50)})
	assert.ErrorIs(t, err, workout.ErrValidation)

	_, err = f.svc.RecordSessionFeedback(f.ctx, s.ID, workout.Feedback{PerceivedEffort: ptr(0), Difficulty: ptr(11)})
	require.ErrorIs(t, err, workout.ErrValidation)
	assert.Len(t, workout.Problems(err), 2)

	stored, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PeakHeartRate)
}
