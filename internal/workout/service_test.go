package workout_test

import (
	"testing"

	"github.com/Worcesters/basicfit/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueriesRunUnderOperationContext verifies repository calls receive the
// operation's span context rather than the caller's.
func TestQueriesRunUnderOperationContext(t *testing.T) {
	db := storagetest.NewSQLite(t)
	store := &ctxStore{db: db}
	f := newFixtureOn(t, db, store)
	m := f.machine("Cable Row", 2.5, 150)

	_, err := f.svc.GetMachine(f.ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, store.repoCtx)
	assert.True(t, store.repoCtx == store.txCtx, "repository saw a different context than the transaction")
	assert.False(t, store.repoCtx == f.ctx, "repository saw the caller's context")
}
