package services

import (
	"testing"

	"chalk-table-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartKillerDirect(t *testing.T) {
	r := newRig(t)
	snap, err := r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "Bob", "Cara"}, 0)
	require.NoError(t, err)

	g := snap.Table.CurrentGame
	require.NotNil(t, g)
	assert.Equal(t, models.ModeKiller, g.Mode)
	require.NotNil(t, g.Killer)
	assert.Equal(t, 1, g.Killer.Round)
	assert.Equal(t, 3, g.Killer.MaxLives, "lives default to 3")
	require.Len(t, g.Killer.Players, 3)
	for _, p := range g.Killer.Players {
		assert.Equal(t, 3, p.Lives)
		assert.False(t, p.IsEliminated)
	}
}

func TestStartKillerValidation(t *testing.T) {
	r := newRig(t)

	_, err := r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "Bob"}, 3)
	assert.True(t, IsValidation(err), "needs at least three players")

	_, err = r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "alice", "Bob"}, 3)
	assert.True(t, IsValidation(err), "duplicate names rejected")

	r.join(models.ModeSingles, "Dan")
	r.join(models.ModeSingles, "Eve")
	_, err = r.games.StartNextGame(r.tableID, -1)
	require.NoError(t, err)
	_, err = r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "Bob", "Cara"}, 3)
	assert.True(t, IsValidation(err), "no killer over a running game")
}

func TestStartKillerConsumesCoveredSignups(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeKiller, "Alice", "Bob")
	keep := r.join(models.ModeSingles, "Dan")

	_, err := r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "Bob", "Cara"}, 2)
	require.NoError(t, err)

	tbl := r.table()
	require.Len(t, tbl.Queue, 1)
	assert.Equal(t, keep, tbl.Queue[0].ID)
}

func TestStartKillerRejectsPartialSignupOverlap(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeDoubles, "Alice", "Bob")

	// Bob is in the sign-up entry but Alice is not in the killer list.
	_, err := r.killers.StartKillerDirect(r.tableID, -1, []string{"Bob", "Cara", "Dan"}, 3)
	assert.True(t, IsValidation(err))
}

func TestKillerEliminationFlow(t *testing.T) {
	r := newRig(t)
	_, err := r.killers.StartKillerDirect(r.tableID, -1, []string{"Alice", "Bob", "Cara"}, 2)
	require.NoError(t, err)

	// Regular scoring is locked out while the killer engine owns the game.
	_, err = r.games.ReportResult(r.tableID, -1, models.SideHolder, nil)
	assert.True(t, IsValidation(err))

	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "Bob")
	require.NoError(t, err)
	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "bob")
	require.NoError(t, err)

	k := r.table().CurrentGame.Killer
	assert.Equal(t, 2, k.Round, "an elimination opens the next round")
	assert.True(t, k.Players[1].IsEliminated)
	assert.False(t, k.IsOver())

	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "Bob")
	assert.True(t, IsValidation(err), "already out")
	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "Zoe")
	assert.True(t, IsValidation(err), "not in the game")

	_, err = r.killers.FinishKillerGame(r.tableID, -1, "")
	assert.True(t, IsValidation(err), "two players still standing")

	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "Cara")
	require.NoError(t, err)
	_, err = r.killers.EliminateKillerPlayer(r.tableID, -1, "Cara")
	require.NoError(t, err)
	require.True(t, r.table().CurrentGame.Killer.IsOver())

	_, err = r.killers.FinishKillerGame(r.tableID, -1, "Bob")
	assert.True(t, IsValidation(err), "winner must be the sole survivor")

	snap, err := r.killers.FinishKillerGame(r.tableID, -1, "Alice")
	require.NoError(t, err)
	assert.Nil(t, snap.Table.CurrentGame)
	assert.Nil(t, snap.Table.LastWinners, "killer wins carry no table streak")

	require.Len(t, r.hist.records, 1)
	rec := r.hist.records[0]
	assert.Equal(t, "killer", rec.Mode)
	assert.Equal(t, []string{"Alice"}, rec.Winners)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Cara"}, rec.Players)

	byName := map[string]models.PlayerStats{}
	for _, p := range snap.Table.Session.Players {
		byName[p.Name] = p
	}
	assert.Equal(t, 1, byName["Alice"].Wins)
	assert.Equal(t, 1, byName["Bob"].Losses)
	assert.Equal(t, 1, byName["Cara"].Losses)
}
