package services

import (
	"log"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"

	"github.com/google/uuid"
)

// kingStreakThreshold is the consecutive-win count at which the holder is
// crowned king of the table.
const kingStreakThreshold = 3

// GameService is the lifecycle state machine for the active game: Idle to
// Active and back, via result, cancel or no-show resolution. All transitions
// are validated against the current state and applied atomically through the
// store.
type GameService struct {
	Store   *store.TableStore
	History HistoryRepo

	Now func() time.Time
}

func NewGameService(st *store.TableStore, history HistoryRepo) *GameService {
	return &GameService{Store: st, History: history, Now: time.Now}
}

// StartNextGame asks the matchmaker for the next pair and promotes it into a
// game. The chosen entries stay in the queue, marked called, with a no-show
// deadline derived from the table settings.
func (s *GameService) StartNextGame(tableID string, version int64) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		return s.startNextGame(t)
	})
}

// startNextGame is the in-transaction start used by both the intent and the
// no-show resolver.
func (s *GameService) startNextGame(t *models.Table) error {
	if t.CurrentGame != nil {
		return Validationf("a game is already in progress")
	}
	pick := PickNextMatch(t.Queue, t.CurrentGame)
	if pick == nil {
		return Validationf("no compatible pair in the queue")
	}

	holder := t.EntryByID(pick.HolderID)
	challenger := t.EntryByID(pick.ChallengerID)
	now := s.Now()
	deadline := now.Add(time.Duration(t.Settings.NoShowTimeoutSeconds) * time.Second)
	for _, e := range []*models.QueueEntry{holder, challenger} {
		e.Status = models.EntryCalled
		e.NoShowDeadline = &deadline
		e.HoldUntil = nil
		e.HoldExpired = false
	}

	mode := holder.Mode
	if pick.Challenge {
		mode = models.ModeChallenge
	}

	var players []models.GamePlayer
	for _, n := range holder.PlayerNames {
		players = append(players, models.GamePlayer{Name: n, Side: models.SideHolder, EntryID: holder.ID})
	}
	for _, n := range challenger.PlayerNames {
		players = append(players, models.GamePlayer{Name: n, Side: models.SideChallenger, EntryID: challenger.ID})
	}

	t.CurrentGame = &models.CurrentGame{
		Mode:            mode,
		Players:         players,
		StartedAt:       now,
		BreakingPlayer:  challenger.PlayerNames[0], // incoming side breaks
		ConsecutiveWins: s.inheritedStreak(t, holder.PlayerNames),
	}
	t.NoShowPrompt = nil
	return nil
}

// inheritedStreak carries the previous winner's streak into the new game
// when the holder side is the side that just won, 0 otherwise.
func (s *GameService) inheritedStreak(t *models.Table, holderNames []string) int {
	if len(t.LastWinners) == 0 || !sameNameSet(t.LastWinners, holderNames) {
		return 0
	}
	return t.LastStreak
}

// ReportResult ends the active 1v1/2v2 game: appends a history record,
// updates streaks and session stats, requeues both sides and returns to
// Idle. Killer and tournament games finish through their own engines.
func (s *GameService) ReportResult(tableID string, version int64, winningSide models.Side, winnerNames []string) (store.Snapshot, error) {
	var rec *models.GameRecord
	snap, err := s.Store.Apply(tableID, version, func(t *models.Table) error {
		g := t.CurrentGame
		if g == nil {
			return Validationf("no game in progress")
		}
		if g.Killer != nil || g.Tournament != nil {
			return Validationf("%s games are scored through their own engine", g.Mode)
		}
		if winningSide != models.SideHolder && winningSide != models.SideChallenger {
			return Validationf("winning side must be holder or challenger")
		}

		winners := g.SideNames(winningSide)
		if len(winnerNames) > 0 && !sameNameSet(winnerNames, winners) {
			return Validationf("winner names do not match the %s side", winningSide)
		}
		losingSide := models.SideChallenger
		if winningSide == models.SideChallenger {
			losingSide = models.SideHolder
		}
		losers := g.SideNames(losingSide)

		now := s.Now()
		holderWon := winningSide == models.SideHolder
		streak := 1
		if holderWon {
			streak = g.ConsecutiveWins + 1
		}

		winnerEntryID := entryIDForSide(g, winningSide)
		loserEntryID := entryIDForSide(g, losingSide)

		// Under the origin policy a losing challenger slots back in front of
		// whatever originally followed it, so remember that neighbor before
		// anything moves.
		originAnchor := ""
		if g.Mode == models.ModeChallenge && holderWon &&
			t.Settings.ChallengeLossPolicy == models.ChallengeLossOrigin {
			seen := false
			for _, e := range t.Queue {
				if e.ID == loserEntryID {
					seen = true
					continue
				}
				if seen && e.ID != winnerEntryID {
					originAnchor = e.ID
					break
				}
			}
		}

		winnerEntry := takeEntry(t, winnerEntryID)
		loserEntry := takeEntry(t, loserEntryID)
		// A spent challenge entry rejoins as a regular singles entry.
		if loserEntry.Mode == models.ModeChallenge {
			loserEntry.Mode = models.ModeSingles
		}
		if winnerEntry.Mode == models.ModeChallenge {
			winnerEntry.Mode = models.ModeSingles
		}

		rotated := t.Settings.WinLimitEnabled && holderWon && streak >= t.Settings.WinLimitCount
		if rotated {
			// Win limit reached: the holder leaves the table despite the
			// win, behind everyone else but ahead of the loser.
			insertEntry(t, len(t.Queue), winnerEntry)
			insertEntry(t, len(t.Queue), loserEntry)
		} else {
			insertEntry(t, 0, winnerEntry)
			loserIdx := len(t.Queue)
			if originAnchor != "" {
				for i := range t.Queue {
					if t.Queue[i].ID == originAnchor {
						loserIdx = i
						break
					}
				}
			}
			insertEntry(t, loserIdx, loserEntry)
		}

		applySessionResult(t, winners, losers, now)
		if holderWon && streak >= kingStreakThreshold {
			crownKing(t, winners[0], streak, now)
		}

		t.LastWinners = append([]string(nil), winners...)
		t.LastStreak = streak
		rec = &models.GameRecord{
			ID:              uuid.NewString(),
			TableID:         t.ID,
			Mode:            string(g.Mode),
			Players:         g.PlayerNames(),
			Winners:         winners,
			WinnerSide:      string(winningSide),
			DurationSec:     int(now.Sub(g.StartedAt) / time.Second),
			ConsecutiveWins: streak,
			EndedAt:         now,
		}
		t.CurrentGame = nil
		t.NoShowPrompt = nil
		return nil
	})
	if err != nil {
		return snap, err
	}
	s.appendHistory(rec)
	return snap, nil
}

// CancelGame discards the active game without writing history. Called
// entries return to waiting in their original relative order.
func (s *GameService) CancelGame(tableID string, version int64) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.CurrentGame == nil {
			return Validationf("no game in progress")
		}
		restoreCalledEntries(t)
		t.CurrentGame = nil
		t.NoShowPrompt = nil
		return nil
	})
}

// appendHistory persists a finished-game record. A storage failure is logged
// but does not undo the committed transition; the aggregate is the source of
// truth for the live session.
func (s *GameService) appendHistory(rec *models.GameRecord) {
	if rec == nil {
		return
	}
	if err := s.History.Append(rec); err != nil {
		log.Printf("[History] failed to append record %s: %v", rec.ID, err)
	}
}

// consumeEntriesFor removes queue entries fully covered by the given player
// list (killer/tournament sign-ups being promoted into a game). An entry
// that only partially overlaps would double-book a player and rejects the
// start.
func consumeEntriesFor(t *models.Table, names []string) error {
	keys := make(map[string]bool, len(names))
	for _, n := range names {
		keys[utils.NameKey(n)] = true
	}
	var kept []models.QueueEntry
	for _, e := range t.Queue {
		covered, overlap := 0, 0
		for _, n := range e.PlayerNames {
			if keys[utils.NameKey(n)] {
				overlap++
			}
		}
		covered = len(e.PlayerNames)
		switch {
		case overlap == 0:
			kept = append(kept, e)
		case overlap == covered:
			// consumed into the game
		default:
			return Validationf("entry %s only partially matches the player list", e.ID)
		}
	}
	t.Queue = kept
	return nil
}

// restoreCalledEntries returns every called entry to waiting, clearing
// deadlines. Entries never moved, so their relative order is intact.
func restoreCalledEntries(t *models.Table) {
	for i := range t.Queue {
		if t.Queue[i].Status == models.EntryCalled {
			t.Queue[i].Status = models.EntryWaiting
			t.Queue[i].NoShowDeadline = nil
		}
	}
}

func applySessionResult(t *models.Table, winners, losers []string, now time.Time) {
	for _, w := range winners {
		p := t.Session.Player(w, now)
		p.Wins++
		p.GamesPlayed++
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
	}
	for _, l := range losers {
		p := t.Session.Player(l, now)
		p.Losses++
		p.GamesPlayed++
		p.CurrentStreak = 0
	}
}

// crownKing crowns or refreshes the king. A continuation of the reigning
// king's streak only bumps the count; a fresh streak gets a fresh CrownedAt.
func crownKing(t *models.Table, player string, streak int, now time.Time) {
	k := t.Session.King
	if k != nil && k.PlayerName == player && streak == k.ConsecutiveWins+1 {
		k.ConsecutiveWins = streak
		return
	}
	t.Session.King = &models.KingOfTable{
		PlayerName:      player,
		ConsecutiveWins: streak,
		CrownedAt:       now,
	}
}

// takeEntry removes the entry from the queue and hands it back reset to
// waiting.
func takeEntry(t *models.Table, entryID string) models.QueueEntry {
	for i := range t.Queue {
		if t.Queue[i].ID == entryID {
			e := t.Queue[i]
			t.Queue = append(t.Queue[:i], t.Queue[i+1:]...)
			e.Status = models.EntryWaiting
			e.NoShowDeadline = nil
			return e
		}
	}
	return models.QueueEntry{}
}

func insertEntry(t *models.Table, idx int, e models.QueueEntry) {
	if e.ID == "" {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(t.Queue) {
		idx = len(t.Queue)
	}
	t.Queue = append(t.Queue[:idx], append([]models.QueueEntry{e}, t.Queue[idx:]...)...)
}

func entryIDForSide(g *models.CurrentGame, side models.Side) string {
	for _, p := range g.Players {
		if p.Side == side {
			return p.EntryID
		}
	}
	return ""
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make(map[string]int, len(a))
	for _, n := range a {
		keys[utils.NameKey(n)]++
	}
	for _, n := range b {
		keys[utils.NameKey(n)]--
	}
	for _, c := range keys {
		if c != 0 {
			return false
		}
	}
	return true
}
