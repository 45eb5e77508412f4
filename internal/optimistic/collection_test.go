package optimistic

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int
	Done bool
	Tags []string
}

func newRows(rows ...row) *Collection[int, row] {
	c := NewCollection(func(r row) int { return r.ID }, WithClone[int](func(r row) row {
		out := r
		out.Tags = append([]string(nil), r.Tags...)
		return out
	}))
	c.Replace(rows)
	return c
}

func toggle(r row) row { r.Done = !r.Done; return r }

func TestBeginUpdateIsVisibleBeforeResolution(t *testing.T) {
	c := newRows(row{ID: 5})

	m, ok := c.BeginUpdate(5, toggle)
	require.True(t, ok)

	got, _ := c.Get(5)
	assert.True(t, got.Done)
	assert.Equal(t, Applied, m.State())
	assert.True(t, c.Pending(5))
}

func TestConfirmKeepsOptimisticValue(t *testing.T) {
	c := newRows(row{ID: 5})
	m, _ := c.BeginUpdate(5, toggle)

	assert.Equal(t, Confirmed, m.Resolve(nil))
	got, _ := c.Get(5)
	assert.True(t, got.Done)
	assert.False(t, c.Pending(5))
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	c := newRows(row{ID: 5, Tags: []string{"a"}})
	m, _ := c.BeginUpdate(5, func(r row) row {
		r.Done = true
		r.Tags[0] = "mutated"
		return r
	})

	assert.Equal(t, RolledBack, m.Resolve(errors.New("network down")))
	got, _ := c.Get(5)
	assert.False(t, got.Done)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestBeginUpdateUnknownKey(t *testing.T) {
	c := newRows(row{ID: 1})
	m, ok := c.BeginUpdate(9, toggle)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestRollbackOnlyTouchesItsEntity(t *testing.T) {
	c := newRows(row{ID: 1}, row{ID: 2})
	m1, _ := c.BeginUpdate(1, toggle)
	m2, _ := c.BeginUpdate(2, toggle)

	m1.Rollback()
	m2.Confirm()

	assert.Equal(t, []row{{ID: 1}, {ID: 2, Done: true}}, c.Snapshot())
}

func TestStaleMutationIsDiscarded(t *testing.T) {
	c := newRows(row{ID: 5})
	first, _ := c.BeginUpdate(5, toggle)  // false -> true
	second, _ := c.BeginUpdate(5, toggle) // true -> false

	// The older response arrives last and failed: it must not revert the newer value.
	assert.Equal(t, Confirmed, second.Confirm())
	assert.Equal(t, Discarded, first.Rollback())

	got, _ := c.Get(5)
	assert.False(t, got.Done)
}

func TestNewestFailureRestoresItsOwnSnapshot(t *testing.T) {
	c := newRows(row{ID: 5})
	first, _ := c.BeginUpdate(5, toggle)
	second, _ := c.BeginUpdate(5, toggle)

	assert.Equal(t, RolledBack, second.Rollback())
	assert.Equal(t, Discarded, first.Confirm())

	got, _ := c.Get(5)
	assert.True(t, got.Done, "value before the second toggle")
}

func TestRollbackOfRemoveReinsertsAtOriginalPosition(t *testing.T) {
	c := newRows(row{ID: 1}, row{ID: 2}, row{ID: 3})
	m := c.BeginRemove(2)
	assert.Equal(t, 2, c.Len())

	m.Rollback()
	assert.Equal(t, []row{{ID: 1}, {ID: 2}, {ID: 3}}, c.Snapshot())
}

func TestRollbackOfInsertRemovesEntity(t *testing.T) {
	c := newRows(row{ID: 1})
	m := c.BeginInsert(row{ID: -1})
	assert.Equal(t, 2, c.Len())

	m.Rollback()
	assert.Equal(t, []row{{ID: 1}}, c.Snapshot())
}

func TestConfirmWithSwapsKey(t *testing.T) {
	c := newRows(row{ID: 1})
	m := c.BeginInsert(row{ID: -1})

	assert.Equal(t, Confirmed, m.ConfirmWith(row{ID: 42}))
	_, tmp := c.Get(-1)
	got, ok := c.Get(42)
	assert.False(t, tmp)
	assert.True(t, ok)
	assert.Equal(t, 42, got.ID)
}

func TestReplaceMakesInFlightStale(t *testing.T) {
	c := newRows(row{ID: 1})
	m := c.BeginRemove(1)

	c.Replace([]row{{ID: 7}})

	assert.Equal(t, Discarded, m.Rollback())
	assert.Equal(t, []row{{ID: 7}}, c.Snapshot())
}

func TestConfirmWithAfterEntityVanished(t *testing.T) {
	c := newRows()
	m := c.BeginInsert(row{ID: -1})
	// A concurrent delete of the same key supersedes the insert.
	del := c.BeginRemove(-1)
	del.Confirm()

	assert.Equal(t, Discarded, m.ConfirmWith(row{ID: 3}))
	assert.Equal(t, 0, c.Len())
}

func TestResolveIsIdempotent(t *testing.T) {
	c := newRows(row{ID: 1})
	m, _ := c.BeginUpdate(1, toggle)

	assert.Equal(t, RolledBack, m.Rollback())
	assert.Equal(t, RolledBack, m.Confirm())
	got, _ := c.Get(1)
	assert.False(t, got.Done)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newRows(row{ID: 1, Tags: []string{"x"}})
	snap := c.Snapshot()
	snap[0].Tags[0] = "y"
	snap[0].Done = true

	got, _ := c.Get(1)
	assert.Equal(t, row{ID: 1, Tags: []string{"x"}}, got)
}

func TestToggleSequencesEndInLastOutcome(t *testing.T) {
	tests := []struct {
		name    string
		toggles int
		failAt  int // index of the newest toggle's failure, -1 for success
		want    bool
	}{
		{"single success", 1, -1, true},
		{"single failure", 1, 0, false},
		{"two toggles success", 2, -1, false},
		{"two toggles newest fails", 2, 1, true},
		{"three toggles newest fails", 3, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRows(row{ID: 5})
			var muts []*Mutation[int, row]
			for i := 0; i < tt.toggles; i++ {
				m, _ := c.BeginUpdate(5, toggle)
				muts = append(muts, m)
			}
			// Responses arrive in issue order.
			for i, m := range muts {
				var err error
				if i == tt.failAt {
					err = errors.New("boom")
				}
				m.Resolve(err)
			}
			got, _ := c.Get(5)
			assert.Equal(t, tt.want, got.Done)
		})
	}
}

func TestConcurrentMutationsOnDistinctEntities(t *testing.T) {
	rows := make([]row, 50)
	for i := range rows {
		rows[i] = row{ID: i}
	}
	c := newRows(rows...)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			m, ok := c.BeginUpdate(id, toggle)
			if !ok {
				return
			}
			if id%2 == 0 {
				m.Confirm()
			} else {
				m.Rollback()
			}
		}(i)
	}
	wg.Wait()

	for _, r := range c.Snapshot() {
		assert.Equal(t, r.ID%2 == 0, r.Done, "row %d", r.ID)
	}
}
