package services

import (
	"testing"

	"chalk-table-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, mode models.GameMode, names ...string) models.QueueEntry {
	return models.QueueEntry{ID: id, PlayerNames: names, Mode: mode, Status: models.EntryWaiting}
}

func TestPickNextMatchPairsFirstTwoCompatible(t *testing.T) {
	queue := []models.QueueEntry{
		entry("a", models.ModeSingles, "Alice"),
		entry("b", models.ModeSingles, "Bob"),
		entry("c", models.ModeSingles, "Cara"),
	}
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.HolderID)
	assert.Equal(t, "b", pick.ChallengerID)
	assert.False(t, pick.Challenge)
}

func TestPickNextMatchNothingWhileGameActive(t *testing.T) {
	queue := []models.QueueEntry{
		entry("a", models.ModeSingles, "Alice"),
		entry("b", models.ModeSingles, "Bob"),
	}
	assert.Nil(t, PickNextMatch(queue, &models.CurrentGame{Mode: models.ModeSingles}))
}

func TestPickNextMatchSkipsSharedNames(t *testing.T) {
	queue := []models.QueueEntry{
		entry("a", models.ModeDoubles, "Alice", "Bob"),
		entry("b", models.ModeDoubles, "bob", "Cara"), // Bob again, case-folded
		entry("c", models.ModeDoubles, "Dan", "Eve"),
	}
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.HolderID)
	assert.Equal(t, "c", pick.ChallengerID)
}

func TestPickNextMatchModesDoNotMix(t *testing.T) {
	queue := []models.QueueEntry{
		entry("a", models.ModeSingles, "Alice"),
		entry("b", models.ModeDoubles, "Bob", "Cara"),
	}
	assert.Nil(t, PickNextMatch(queue, nil))

	queue = append(queue, entry("c", models.ModeSingles, "Dan"))
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.HolderID)
	assert.Equal(t, "c", pick.ChallengerID)
}

func TestPickNextMatchIgnoresKillerAndTournamentSignups(t *testing.T) {
	queue := []models.QueueEntry{
		entry("k", models.ModeKiller, "Alice", "Bob", "Cara"),
		entry("t", models.ModeTournament, "Dan"),
		entry("a", models.ModeSingles, "Eve"),
		entry("b", models.ModeSingles, "Fay"),
	}
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.HolderID)
	assert.Equal(t, "b", pick.ChallengerID)
}

func TestPickNextMatchChallengeJumpsTheLine(t *testing.T) {
	queue := []models.QueueEntry{
		entry("a", models.ModeSingles, "Alice"),
		entry("b", models.ModeSingles, "Bob"),
		entry("ch", models.ModeChallenge, "Rita"),
	}
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.True(t, pick.Challenge)
	assert.Equal(t, "a", pick.HolderID)
	assert.Equal(t, "ch", pick.ChallengerID)
}

func TestPickNextMatchChallengeIsNeverHolder(t *testing.T) {
	// Only a challenge and a doubles pair: no singles holder exists, so the
	// challenge blocks matching entirely rather than holding the table.
	queue := []models.QueueEntry{
		entry("ch", models.ModeChallenge, "Rita"),
		entry("d", models.ModeDoubles, "Alice", "Bob"),
	}
	assert.Nil(t, PickNextMatch(queue, nil))
}

func TestPickNextMatchUnpairedChallengeBlocksRegulars(t *testing.T) {
	// The only singles holder shares a name with the challenger, so the
	// challenge cannot pair, and the doubles pair behind it must wait.
	queue := []models.QueueEntry{
		entry("ch", models.ModeChallenge, "Rita"),
		entry("a", models.ModeSingles, "rita"),
		entry("d1", models.ModeDoubles, "Alice", "Bob"),
		entry("d2", models.ModeDoubles, "Cara", "Dan"),
	}
	assert.Nil(t, PickNextMatch(queue, nil))
}

func TestPickNextMatchOnHoldEntriesAreSkipped(t *testing.T) {
	held := entry("a", models.ModeSingles, "Alice")
	held.Status = models.EntryOnHold
	queue := []models.QueueEntry{
		held,
		entry("b", models.ModeSingles, "Bob"),
		entry("c", models.ModeSingles, "Cara"),
	}
	pick := PickNextMatch(queue, nil)
	require.NotNil(t, pick)
	assert.Equal(t, "b", pick.HolderID)
	assert.Equal(t, "c", pick.ChallengerID)
}
