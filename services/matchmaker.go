package services

import (
	"chalk-table-service/models"
	"chalk-table-service/utils"
)

// MatchPick is the matchmaker's proposal: which queue entries become the
// next holder and challenger.
type MatchPick struct {
	HolderID     string
	ChallengerID string
	Challenge    bool
}

// PickNextMatch chooses the next holder/challenger pair from the queue. Pure
// function: it inspects, never reorders.
//
// Rules: nothing while a game is active. A challenge entry always becomes
// the challenger (never the holder) and jumps the line; the holder stays the
// first regular entry. Otherwise the first waiting singles/doubles entry
// holds and the scan walks forward for the first compatible opponent.
// Killer and tournament sign-ups are never auto-matched and are skipped in
// place, as is any entry sharing a player name with the holder.
func PickNextMatch(queue []models.QueueEntry, current *models.CurrentGame) *MatchPick {
	if current != nil {
		return nil
	}

	waiting := func(e *models.QueueEntry) bool { return e.Status == models.EntryWaiting }
	matchable := func(e *models.QueueEntry) bool {
		return e.Mode == models.ModeSingles || e.Mode == models.ModeDoubles
	}

	// A pending challenge takes the challenger slot unconditionally.
	for i := range queue {
		c := &queue[i]
		if !waiting(c) || c.Mode != models.ModeChallenge {
			continue
		}
		for j := range queue {
			h := &queue[j]
			if j == i || !waiting(h) || !matchable(h) {
				continue
			}
			// A challenge is a single player, so it can only take on a
			// singles holder.
			if h.Mode != models.ModeSingles {
				continue
			}
			if sharesPlayer(c, h) {
				continue
			}
			return &MatchPick{HolderID: h.ID, ChallengerID: c.ID, Challenge: true}
		}
		// Challenge present but nobody to challenge: hold the table open
		// rather than letting a regular pair cut past the challenger.
		return nil
	}

	// Regular matching: first matchable entry holds, first compatible entry
	// after it challenges. Skipped entries keep their position.
	for i := range queue {
		h := &queue[i]
		if !waiting(h) || !matchable(h) {
			continue
		}
		for j := i + 1; j < len(queue); j++ {
			c := &queue[j]
			if !waiting(c) || !matchable(c) {
				continue
			}
			if c.Mode != h.Mode {
				continue
			}
			if sharesPlayer(c, h) {
				continue
			}
			return &MatchPick{HolderID: h.ID, ChallengerID: c.ID}
		}
		return nil
	}
	return nil
}

func sharesPlayer(a, b *models.QueueEntry) bool {
	for _, an := range a.PlayerNames {
		for _, bn := range b.PlayerNames {
			if utils.NameKey(an) == utils.NameKey(bn) {
				return true
			}
		}
	}
	return false
}
