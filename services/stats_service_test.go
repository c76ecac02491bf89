package services

import (
	"testing"
	"time"

	"chalk-table-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(tableID string, endedAt time.Time, winner string, losers ...string) models.GameRecord {
	return models.GameRecord{
		ID:      winner + endedAt.String(),
		TableID: tableID,
		Mode:    "singles",
		Players: append([]string{winner}, losers...),
		Winners: []string{winner},
		EndedAt: endedAt,
	}
}

func TestSessionLeaderboardOrdering(t *testing.T) {
	r := newRig(t)
	r.join(models.ModeSingles, "Alice")
	r.join(models.ModeSingles, "Bob")
	r.join(models.ModeSingles, "Cara")

	r.startGame()
	r.report(models.SideHolder) // Alice beats Bob
	r.startGame()
	r.report(models.SideHolder) // Alice beats Cara

	out, err := r.stats.SessionLeaderboard(r.tableID)
	require.NoError(t, err)
	require.Len(t, out.Players, 3)
	assert.Equal(t, "Alice", out.Players[0].Name)
	assert.Equal(t, 2, out.Players[0].Wins)
	// Bob and Cara are level on everything; first seen breaks the tie.
	assert.Equal(t, "Bob", out.Players[1].Name)
	assert.Equal(t, "Cara", out.Players[2].Name)
}

func TestWindowLeaderboardIgnoresRecordsOutsideTheWindow(t *testing.T) {
	r := newRig(t)
	old := r.now.Add(-48 * time.Hour)
	recent := r.now.Add(-2 * time.Hour)
	r.hist.records = []models.GameRecord{
		record(r.tableID, old, "Bob", "Alice"),
		record(r.tableID, recent, "Alice", "Bob"),
	}

	day, err := r.stats.WindowLeaderboard(r.tableID, "day")
	require.NoError(t, err)
	require.Len(t, day.Players, 2)
	assert.Equal(t, "Alice", day.Players[0].Name)
	assert.Equal(t, 1, day.Players[0].Wins)
	assert.Equal(t, 0, day.Players[0].Losses, "the old loss is outside the window")

	week, err := r.stats.WindowLeaderboard(r.tableID, "week")
	require.NoError(t, err)
	byName := map[string]models.PlayerStats{}
	for _, p := range week.Players {
		byName[p.Name] = p
	}
	assert.Equal(t, 1, byName["Bob"].Wins)
	assert.Equal(t, 1, byName["Alice"].Losses)

	_, err = r.stats.WindowLeaderboard(r.tableID, "year")
	assert.True(t, IsValidation(err))
}

func TestWindowLeaderboardIncludesGameEndingRightNow(t *testing.T) {
	r := newRig(t)
	r.hist.records = []models.GameRecord{
		record(r.tableID, r.now, "Alice", "Bob"),
	}

	day, err := r.stats.WindowLeaderboard(r.tableID, "day")
	require.NoError(t, err)
	require.Len(t, day.Players, 2)
	assert.Equal(t, 1, day.Players[0].Wins)
}

func TestWindowLeaderboardDoesNotTouchSessionState(t *testing.T) {
	r := newRig(t)
	r.hist.records = []models.GameRecord{
		record(r.tableID, r.now.Add(-time.Hour), "Alice", "Bob"),
	}

	_, err := r.stats.WindowLeaderboard(r.tableID, "day")
	require.NoError(t, err)
	assert.Empty(t, r.table().Session.Players, "replay is read-only")
}

func TestWindowKingDerivedFromReplay(t *testing.T) {
	r := newRig(t)
	base := r.now.Add(-6 * time.Hour)
	crowning := base.Add(2 * time.Hour)
	r.hist.records = []models.GameRecord{
		record(r.tableID, base, "Alice", "Bob"),
		record(r.tableID, base.Add(time.Hour), "Alice", "Cara"),
		record(r.tableID, crowning, "Alice", "Bob"),
		// The streak breaks, then a shorter one starts.
		record(r.tableID, base.Add(3*time.Hour), "Bob", "Alice"),
		record(r.tableID, base.Add(4*time.Hour), "Bob", "Cara"),
	}

	out, err := r.stats.WindowLeaderboard(r.tableID, "day")
	require.NoError(t, err)
	require.NotNil(t, out.King)
	assert.Equal(t, "Alice", out.King.PlayerName)
	assert.Equal(t, 3, out.King.ConsecutiveWins)
	assert.True(t, out.King.CrownedAt.Equal(crowning))
}

func TestWindowKingNeedsThreeStraight(t *testing.T) {
	r := newRig(t)
	base := r.now.Add(-3 * time.Hour)
	r.hist.records = []models.GameRecord{
		record(r.tableID, base, "Alice", "Bob"),
		record(r.tableID, base.Add(time.Hour), "Alice", "Bob"),
	}
	out, err := r.stats.WindowLeaderboard(r.tableID, "day")
	require.NoError(t, err)
	assert.Nil(t, out.King)
}

func TestRecentGamesNewestFirst(t *testing.T) {
	r := newRig(t)
	base := r.now.Add(-3 * time.Hour)
	r.hist.records = []models.GameRecord{
		record(r.tableID, base, "Alice", "Bob"),
		record(r.tableID, base.Add(time.Hour), "Bob", "Alice"),
		record(r.tableID, base.Add(2*time.Hour), "Alice", "Bob"),
	}

	games, err := r.stats.RecentGames(r.tableID, 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.True(t, games[0].EndedAt.After(games[1].EndedAt))

	_, err = r.stats.RecentGames("nope", 2)
	assert.Error(t, err)
}
