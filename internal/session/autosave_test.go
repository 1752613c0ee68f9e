package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushOnlyWhenDirty(t *testing.T) {
	f := newFixture(t, 3)
	saver := NewAutosaver(f.engine, time.Minute, nil)

	// Clean engine: nothing to push.
	saver.Flush(context.Background())
	assert.Equal(t, 0, f.sstore.snapshotCount())

	require.NoError(t, f.engine.Answer(f.cards[0].ID, true))
	saver.Flush(context.Background())
	assert.Equal(t, 1, f.sstore.snapshotCount())

	// Flag is cleared by a successful push.
	assert.False(t, f.engine.Dirty())
	saver.Flush(context.Background())
	assert.Equal(t, 1, f.sstore.snapshotCount())
}

func TestFlushFailureReArmsDirtyFlag(t *testing.T) {
	f := newFixture(t, 3)
	saver := NewAutosaver(f.engine, time.Minute, nil)

	require.NoError(t, f.engine.Answer(f.cards[0].ID, true))

	f.sstore.failSnapshots = true
	saver.Flush(context.Background())
	assert.Equal(t, 0, f.sstore.snapshotCount())
	assert.True(t, f.engine.Dirty(), "failed push must leave the dirty flag set")

	// The next flush retries and succeeds with the latest state.
	f.sstore.failSnapshots = false
	require.NoError(t, f.engine.Answer(f.cards[1].ID, true))
	saver.Flush(context.Background())
	require.Equal(t, 1, f.sstore.snapshotCount())
	assert.Len(t, f.sstore.snapshots[0].Answers, 2, "retry pushes last-write-wins state")
}

func TestFlushSnapshotContents(t *testing.T) {
	f := newFixture(t, 3)
	saver := NewAutosaver(f.engine, time.Minute, nil)

	require.NoError(t, f.engine.Answer(f.cards[0].ID, true))
	f.clock.Advance(10 * time.Second)
	require.NoError(t, f.engine.Advance())
	require.NoError(t, f.engine.Skip(f.cards[1].ID))

	saver.Flush(context.Background())
	require.Equal(t, 1, f.sstore.snapshotCount())

	snap := f.sstore.snapshots[0]
	assert.Equal(t, f.session.ID, snap.SessionID)
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Equal(t, 1, snap.Streak)
	assert.Equal(t, 20, snap.SessionXP)
	assert.Equal(t, 10, snap.DurationSeconds)
	assert.Len(t, snap.Answers, 2)
}

func TestAutosaverLoopPushesPeriodically(t *testing.T) {
	f := newFixture(t, 3)
	saver := NewAutosaver(f.engine, 10*time.Millisecond, nil)

	require.NoError(t, f.engine.Answer(f.cards[0].ID, true))

	saver.Start()
	defer saver.Stop()

	assert.Eventually(t, func() bool {
		return f.sstore.snapshotCount() >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestStopFlushesPendingState(t *testing.T) {
	f := newFixture(t, 3)
	saver := NewAutosaver(f.engine, time.Hour, nil) // loop will never tick

	saver.Start()
	require.NoError(t, f.engine.Answer(f.cards[0].ID, true))
	saver.Stop()

	assert.Equal(t, 1, f.sstore.snapshotCount())
}
