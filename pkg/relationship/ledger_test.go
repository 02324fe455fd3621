package relationship

import (
	"errors"
	"sync"
	"testing"

	"lovelink/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []Profile
}

func (r *recordingPersister) Persist(p Profile) {
	r.mu.Lock()
	r.saved = append(r.saved, p)
	r.mu.Unlock()
}

func (r *recordingPersister) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func newTestLedger(t *testing.T, score int) (*Ledger, *recordingPersister) {
	t.Helper()
	p := NewProfile("user1")
	p.IntimacyScore = score
	rec := &recordingPersister{}
	l, err := NewLedger(p, catalog.Default(), rec)
	require.NoError(t, err)
	return l, rec
}

func TestNewLedger_InvalidProfile(t *testing.T) {
	_, err := NewLedger(Profile{}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidProfile))

	_, err = NewLedger(Profile{ID: "x", IntimacyScore: -5}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestApplyDelta_NonPositiveIsNoop(t *testing.T) {
	l, rec := newTestLedger(t, 40)

	for _, amount := range []int{0, -10} {
		change := l.ApplyDelta(amount, "noop")
		assert.False(t, change.Applied())
		assert.Equal(t, 40, change.NewScore)
	}
	assert.Equal(t, 40, l.Score())
	assert.Equal(t, 0, rec.count(), "no-op changes are not persisted")
	assert.Empty(t, l.Entries())
}

func TestApplyDelta_Additive(t *testing.T) {
	l, rec := newTestLedger(t, 0)

	change := l.ApplyDelta(20, "test")
	assert.True(t, change.Applied())
	assert.Equal(t, 0, change.OldScore)
	assert.Equal(t, 20, change.NewScore)
	assert.False(t, change.StageChanged)
	assert.Empty(t, change.NewlyUnlocked)
	assert.Equal(t, 1, rec.count())

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 20, entries[0].Amount)
	assert.Equal(t, "test", entries[0].Reason)
	assert.Equal(t, 20, entries[0].Balance)
}

func TestApplyDelta_StageChangeReportsUnlocks(t *testing.T) {
	l, _ := newTestLedger(t, 90)

	change := l.ApplyDelta(40, "chat")
	require.True(t, change.StageChanged)
	assert.Equal(t, "Acquaintance", change.Stage.Name)
	assert.NotEmpty(t, change.Milestone)

	ids := []string{}
	for _, loc := range change.NewlyUnlocked {
		ids = append(ids, loc.ID)
		assert.Greater(t, loc.RequiredIntimacy, 90)
		assert.LessOrEqual(t, loc.RequiredIntimacy, 130)
	}
	assert.Equal(t, []string{"karaoke"}, ids)
}

func TestApplyDelta_NoCapAndInfiniteLatch(t *testing.T) {
	l, _ := newTestLedger(t, 4990)

	change := l.ApplyDelta(10, "date")
	assert.True(t, change.InfiniteUnlocked)
	assert.True(t, l.Snapshot().InfiniteModeUnlocked)
	assert.Equal(t, "Soulmate", change.Stage.Name)

	change = l.ApplyDelta(1_000_000, "huge")
	assert.False(t, change.InfiniteUnlocked, "latch closes exactly once")
	assert.Equal(t, 1_005_000, l.Score())
}

func TestApplyDelta_MonotonicOverSequence(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	prev := l.Score()
	prevLevel := l.Stage().Level
	for _, d := range []int{3, 0, 17, 250, 1, 999, 4000, 0, 12} {
		l.ApplyDelta(d, "seq")
		assert.GreaterOrEqual(t, l.Score(), prev)
		assert.GreaterOrEqual(t, l.Stage().Level, prevLevel)
		prev = l.Score()
		prevLevel = l.Stage().Level
	}
}

func TestReset(t *testing.T) {
	l, rec := newTestLedger(t, 0)
	l.ApplyDelta(6000, "grind")
	l.RecordDateStart(true)

	p := l.Reset("user asked")
	assert.Equal(t, 0, p.IntimacyScore)
	assert.Equal(t, 0, p.TotalDateCount)
	assert.Equal(t, 0, p.InfiniteDateCount)
	assert.False(t, p.InfiniteModeUnlocked)
	assert.Equal(t, 1, p.ResetEpoch)
	assert.Equal(t, 3, rec.count())

	entries := l.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, -6000, last.Amount)
	assert.Contains(t, last.Reason, "reset")
}

func TestRecordDateStart(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	l.RecordDateStart(false)
	l.RecordDateStart(true)

	p := l.Snapshot()
	assert.Equal(t, 2, p.TotalDateCount)
	assert.Equal(t, 1, p.InfiniteDateCount)
}

func TestAdopt(t *testing.T) {
	l, _ := newTestLedger(t, 100)

	t.Run("Higher score same epoch", func(t *testing.T) {
		remote := l.Snapshot()
		remote.IntimacyScore = 150
		require.NoError(t, l.Adopt(remote))
		assert.Equal(t, 150, l.Score())
	})

	t.Run("Lower score same epoch is refused", func(t *testing.T) {
		remote := l.Snapshot()
		remote.IntimacyScore = 10
		assert.Error(t, l.Adopt(remote))
		assert.Equal(t, 150, l.Score())
	})

	t.Run("Newer epoch may lower", func(t *testing.T) {
		remote := l.Snapshot()
		remote.IntimacyScore = 5
		remote.ResetEpoch = 1
		require.NoError(t, l.Adopt(remote))
		assert.Equal(t, 5, l.Score())
	})

	t.Run("Other profile", func(t *testing.T) {
		other := NewProfile("someone-else")
		assert.ErrorIs(t, l.Adopt(other), ErrInvalidProfile)
	})
}

func TestLedger_ConcurrentApply(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.ApplyDelta(2, "race")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Score())
}
