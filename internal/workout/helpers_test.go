package workout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/storage/storagetest"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *storage.DB
	svc    *workout.Service
	userID int64
}

func newFixture(t *testing.T, opts ...workout.Option) *fixture {
	t.Helper()
	db := storagetest.NewSQLite(t)
	db.SetClock(func() time.Time { return testNow })
	return newFixtureOn(t, db, db, opts...)
}

func newFixtureOn(t *testing.T, db *storage.DB, store workout.Store, opts ...workout.Option) *fixture {
	t.Helper()
	opts = append([]workout.Option{workout.WithClock(func() time.Time { return testNow })}, opts...)
	f := &fixture{
		t:   t,
		ctx: context.Background(),
		db:  db,
		svc: workout.New(store, logging.Discard(), opts...),
	}
	var err error
	f.userID, err = f.svc.GetOrCreateUser(f.ctx, gofakeit.Username(), gofakeit.Name())
	require.NoError(t, err)
	return f
}

func (f *fixture) machine(name string, increment, maxWeight float64) *models.Machine {
	f.t.Helper()
	m, err := f.svc.CreateMachine(f.ctx, workout.MachineInput{Name: name, WeightIncrement: increment, MaxWeight: maxWeight})
	require.NoError(f.t, err)
	return m
}

func (f *fixture) mode(code models.TrainingModeCode) *models.TrainingMode {
	f.t.Helper()
	modes, err := f.svc.ListTrainingModes(f.ctx)
	require.NoError(f.t, err)
	for i := range modes {
		if modes[i].Code == code {
			return &modes[i]
		}
	}
	f.t.Fatalf("mode %s not seeded", code)
	return nil
}

// startedSession creates and starts a session, optionally in a mode.
func (f *fixture) startedSession(modeID *int64) *models.Session {
	f.t.Helper()
	s, err := f.svc.CreateSession(f.ctx, workout.CreateSessionInput{UserID: f.userID, Name: gofakeit.Word(), TrainingModeID: modeID})
	require.NoError(f.t, err)
	s, err = f.svc.StartSession(f.ctx, s.ID)
	require.NoError(f.t, err)
	return s
}

// performedEntry plans n sets of planned reps at weight and records the
// given actual reps, one value per set.
func (f *fixture) performedEntry(sessionID, machineID int64, planned int, weight float64, actual ...int) *models.ExerciseEntry {
	f.t.Helper()
	e, err := f.svc.PlanExercise(f.ctx, workout.PlanExerciseInput{
		SessionID: sessionID, MachineID: machineID, Sets: len(actual), Reps: planned, Weight: weight, RestSec: 90,
	})
	require.NoError(f.t, err)
	for i, reps := range actual {
		_, err := f.svc.RecordSetResult(f.ctx, workout.RecordSetInput{SetID: e.Sets[i].ID, ActualReps: reps})
		require.NoError(f.t, err)
	}
	return e
}

// putTracker stores a tracker directly, bypassing the lazy creation.
func (f *fixture) putTracker(tr *models.ProgressionTracker) {
	f.t.Helper()
	require.NoError(f.t, f.db.InTx(f.ctx, func(r storage.Repository) error {
		return r.InsertTracker(f.ctx, tr)
	}))
}

func (f *fixture) tracker(machineID, modeID int64) *models.ProgressionTracker {
	f.t.Helper()
	var tr *models.ProgressionTracker
	require.NoError(f.t, f.db.InTx(f.ctx, func(r storage.Repository) error {
		var err error
		tr, err = r.GetTracker(f.ctx, f.userID, machineID, modeID, false)
		return err
	}))
	return tr
}

func ptr[T any](v T) *T { return &v }

var errInjected = errors.New("injected fault")

// faultyStore fails ListExercises inside every transaction.
type faultyStore struct {
	db *storage.DB
}

func (s faultyStore) InTx(ctx context.Context, fn func(storage.Repository) error) error {
	return s.db.InTx(ctx, func(r storage.Repository) error {
		return fn(faultyRepo{Repository: r})
	})
}

type faultyRepo struct {
	storage.Repository
}

func (faultyRepo) ListExercises(context.Context, int64) ([]models.ExerciseEntry, error) {
	return nil, errInjected
}

// ctxStore remembers the context of the last transaction and of the last
// machine lookup made inside it.
type ctxStore struct {
	db      *storage.DB
	txCtx   context.Context
	repoCtx context.Context
}

func (s *ctxStore) InTx(ctx context.Context, fn func(storage.Repository) error) error {
	s.txCtx = ctx
	return s.db.InTx(ctx, func(r storage.Repository) error {
		return fn(ctxRepo{Repository: r, store: s})
	})
}

type ctxRepo struct {
	storage.Repository
	store *ctxStore
}

func (r ctxRepo) GetMachine(ctx context.Context, id int64) (*models.Machine, error) {
	r.store.repoCtx = ctx
	return r.Repository.GetMachine(ctx, id)
}
