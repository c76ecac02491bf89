package store

import (
	"sync"
	"testing"

	"chalk-table-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithTable(t *testing.T) (*TableStore, string) {
	t.Helper()
	s := NewTableStore()
	snap := s.Put(&models.Table{ID: "t1", Name: "Front Table"})
	require.Equal(t, int64(1), snap.Version)
	return s, "t1"
}

func TestGetReturnsIsolatedCopies(t *testing.T) {
	s, id := newStoreWithTable(t)

	snap, err := s.Get(id)
	require.NoError(t, err)
	snap.Table.Name = "scribbled on"

	again, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Front Table", again.Table.Name)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestApplyCommitsAndBumpsVersion(t *testing.T) {
	s, id := newStoreWithTable(t)

	snap, err := s.Apply(id, -1, func(tbl *models.Table) error {
		tbl.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, "Renamed", snap.Table.Name)
}

func TestApplyRollsBackOnError(t *testing.T) {
	s, id := newStoreWithTable(t)

	boom := assert.AnError
	_, err := s.Apply(id, -1, func(tbl *models.Table) error {
		tbl.Name = "half done"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Front Table", snap.Table.Name)
	assert.Equal(t, int64(1), snap.Version)
}

func TestApplyVersionPrecondition(t *testing.T) {
	s, id := newStoreWithTable(t)

	_, err := s.Apply(id, 99, func(tbl *models.Table) error { return nil })
	assert.ErrorIs(t, err, ErrVersionConflict)

	// -1 skips the check.
	snap, err := s.Apply(id, -1, func(tbl *models.Table) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
}

func TestConcurrentSameVersionWritersExactlyOneWins(t *testing.T) {
	s, id := newStoreWithTable(t)
	base, err := s.Get(id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Apply(id, base.Version, func(tbl *models.Table) error {
				tbl.Name = "writer"
				return nil
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			wins++
		case ErrVersionConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}

func TestSubscribePrimedAndNotified(t *testing.T) {
	s, id := newStoreWithTable(t)

	ch, err := s.Subscribe(id)
	require.NoError(t, err)
	defer s.Unsubscribe(id, ch)

	first := <-ch
	assert.Equal(t, int64(1), first.Version)

	_, err = s.Apply(id, -1, func(tbl *models.Table) error {
		tbl.Name = "updated"
		return nil
	})
	require.NoError(t, err)

	next := <-ch
	assert.Equal(t, int64(2), next.Version)
	assert.Equal(t, "updated", next.Table.Name)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s, id := newStoreWithTable(t)

	ch, err := s.Subscribe(id)
	require.NoError(t, err)
	defer s.Unsubscribe(id, ch)

	// Never read: overflow the buffer and keep committing.
	for i := 0; i < 100; i++ {
		_, err := s.Apply(id, -1, func(tbl *models.Table) error { return nil })
		require.NoError(t, err)
	}

	snap, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(101), snap.Version, "writer never blocked")
}

func TestPutReplacesAndKeepsVersionMonotonic(t *testing.T) {
	s, id := newStoreWithTable(t)

	_, err := s.Apply(id, -1, func(tbl *models.Table) error { return nil })
	require.NoError(t, err)

	snap := s.Put(&models.Table{ID: id, Name: "Fresh"})
	assert.Equal(t, int64(3), snap.Version, "replacement keeps counting")
	assert.Equal(t, "Fresh", snap.Table.Name)

	assert.ElementsMatch(t, []string{id}, s.IDs())
}
