package services

import (
	"testing"
	"time"

	"chalk-table-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoShowDismissClearsDeadlines(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	r.startGame()

	_, err := r.games.DismissNoShow(r.tableID, -1)
	require.NoError(t, err)
	tbl := r.table()
	for _, e := range tbl.CalledEntries() {
		assert.Nil(t, e.NoShowDeadline)
	}

	// Nothing left to dismiss.
	_, err = r.games.DismissNoShow(r.tableID, -1)
	assert.True(t, IsValidation(err))
}

func TestNoShowSweepOpensPromptAfterDeadline(t *testing.T) {
	r := newRig(t)
	a := r.join(models.ModeSingles, "Alice")
	b := r.join(models.ModeSingles, "Bob")
	r.startGame()

	r.games.SweepNoShows(r.tableID)
	assert.Nil(t, r.table().NoShowPrompt, "no prompt before the deadline")

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)
	tbl := r.table()
	require.NotNil(t, tbl.NoShowPrompt)
	assert.True(t, tbl.NoShowPrompt.Selected[a])
	assert.True(t, tbl.NoShowPrompt.Selected[b])
	assert.True(t, tbl.NoShowPrompt.AutoResolveAt.Equal(tbl.NoShowPrompt.ExpiredAt.Add(15*time.Second)))

	// Repeated sweeps inside the grace window are no-ops.
	v := r.mustVersion()
	r.games.SweepNoShows(r.tableID)
	assert.Equal(t, v, r.mustVersion())
}

func TestNoShowAutoResolveRemovesMarkedAndRestarts(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	b := r.join(models.ModeSingles, "Bob")
	r.join(models.ModeSingles, "Cara")
	r.startGame()

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)

	// Only Bob failed to show.
	_, err := r.games.UpdateNoShowSelection(r.tableID, -1, []string{b})
	require.NoError(t, err)

	r.advance(16 * time.Second)
	r.games.SweepNoShows(r.tableID)

	tbl := r.table()
	assert.Nil(t, tbl.NoShowPrompt)
	assert.Nil(t, tbl.EntryByID(b), "marked entry is removed")
	// Alice was restored and immediately re-matched against Cara.
	require.NotNil(t, tbl.CurrentGame)
	assert.Equal(t, []string{"Alice"}, tbl.CurrentGame.SideNames(models.SideHolder))
	assert.Equal(t, []string{"Cara"}, tbl.CurrentGame.SideNames(models.SideChallenger))
	assert.Empty(t, r.hist.records, "a forfeit is not a finished game")
}

func TestNoShowAutoResolveLeavesTableIdleWhenQueueEmpties(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	r.startGame()

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)
	r.advance(16 * time.Second)
	r.games.SweepNoShows(r.tableID) // both marked by default

	tbl := r.table()
	assert.Nil(t, tbl.CurrentGame)
	assert.Empty(t, tbl.Queue)
}

func TestNoShowDismissBeatsAutoResolve(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	r.startGame()

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)

	// The players turn up inside the grace window.
	_, err := r.games.DismissNoShow(r.tableID, -1)
	require.NoError(t, err)

	// The late tick finds no prompt and must not resolve anything.
	r.advance(60 * time.Second)
	r.games.SweepNoShows(r.tableID)

	tbl := r.table()
	require.NotNil(t, tbl.CurrentGame)
	assert.Len(t, tbl.Queue, 2)
}

func TestManualResolveBeforeGraceEnds(t *testing.T) {
	r := newRig(t)
	a := r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	r.startGame()

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)

	_, err := r.games.ResolveNoShows(r.tableID, -1, []string{a})
	require.NoError(t, err)

	tbl := r.table()
	assert.Nil(t, tbl.EntryByID(a))
	assert.Nil(t, tbl.CurrentGame, "Bob alone cannot form a match")
	assert.Equal(t, []string{"Bob"}, queueNames(tbl))
}

func TestUpdateSelectionRejectsUncalledEntries(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	c := r.join(models.ModeSingles, "Cara")
	r.startGame()

	r.advance(91 * time.Second)
	r.games.SweepNoShows(r.tableID)

	_, err := r.games.UpdateNoShowSelection(r.tableID, -1, []string{c})
	assert.True(t, IsValidation(err))
}

func (r *rig) mustVersion() int64 {
	r.t.Helper()
	snap, err := r.store.Get(r.tableID)
	require.NoError(r.t, err)
	return snap.Version
}
