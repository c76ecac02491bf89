package services

import (
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"

	"github.com/google/uuid"
)

const killerMinPlayers = 3

// KillerService runs the elimination variant: everyone starts with the same
// number of lives, eliminations whittle the field down to a sole survivor.
type KillerService struct {
	Store   *store.TableStore
	Games   *GameService
	History HistoryRepo

	Now func() time.Time
}

func NewKillerService(st *store.TableStore, games *GameService, history HistoryRepo) *KillerService {
	return &KillerService{Store: st, Games: games, History: history, Now: time.Now}
}

// StartKillerDirect starts a killer game from an explicit player list,
// bypassing the matchmaker. Queue sign-ups fully covered by the list are
// consumed.
func (s *KillerService) StartKillerDirect(tableID string, version int64, names []string, lives int) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.CurrentGame != nil {
			return Validationf("a game is already in progress")
		}
		if lives <= 0 {
			lives = 3
		}
		cleaned := make([]string, 0, len(names))
		seen := make(map[string]bool)
		for _, n := range names {
			display := utils.DisplayName(n)
			if display == "" {
				return Validationf("player names cannot be blank")
			}
			key := utils.NameKey(display)
			if seen[key] {
				return Validationf("duplicate name %s", display)
			}
			seen[key] = true
			cleaned = append(cleaned, display)
		}
		if len(cleaned) < killerMinPlayers || len(cleaned) > t.Settings.KillerMaxPlayers {
			return Validationf("killer takes %d to %d players", killerMinPlayers, t.Settings.KillerMaxPlayers)
		}
		if err := consumeEntriesFor(t, cleaned); err != nil {
			return err
		}

		killer := &models.KillerState{Round: 1, MaxLives: lives}
		var players []models.GamePlayer
		for _, n := range cleaned {
			killer.Players = append(killer.Players, models.KillerPlayer{Name: n, Lives: lives})
			players = append(players, models.GamePlayer{Name: n})
		}
		t.CurrentGame = &models.CurrentGame{
			Mode:      models.ModeKiller,
			Players:   players,
			StartedAt: s.Now(),
			Killer:    killer,
		}
		t.NoShowPrompt = nil
		return nil
	})
}

// EliminateKillerPlayer takes one life from the named player. Rejected for
// players who are already out.
func (s *KillerService) EliminateKillerPlayer(tableID string, version int64, name string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		k := killerState(t)
		if k == nil {
			return Validationf("no killer game in progress")
		}
		key := utils.NameKey(name)
		for i := range k.Players {
			p := &k.Players[i]
			if utils.NameKey(p.Name) != key {
				continue
			}
			if p.IsEliminated {
				return Validationf("%s is already eliminated", p.Name)
			}
			p.Lives--
			if p.Lives <= 0 {
				p.Lives = 0
				p.IsEliminated = true
				k.Round++
			}
			return nil
		}
		return Validationf("%s is not in this killer game", name)
	})
}

// FinishKillerGame records the result and returns the table to idle. Only
// legal once at most one player is left standing.
func (s *KillerService) FinishKillerGame(tableID string, version int64, winner string) (store.Snapshot, error) {
	var rec *models.GameRecord
	snap, err := s.Store.Apply(tableID, version, func(t *models.Table) error {
		k := killerState(t)
		if k == nil {
			return Validationf("no killer game in progress")
		}
		if !k.IsOver() {
			return Validationf("killer game is not over yet (%d players standing)", len(k.Survivors()))
		}
		survivor := k.Winner()
		if winner != "" && survivor != "" && utils.NameKey(winner) != utils.NameKey(survivor) {
			return Validationf("winner must be the sole survivor %s", survivor)
		}
		if survivor == "" {
			survivor = utils.DisplayName(winner)
		}
		if survivor == "" {
			return Validationf("no survivor to declare as winner")
		}

		g := t.CurrentGame
		now := s.Now()
		var losers []string
		for _, p := range g.PlayerNames() {
			if utils.NameKey(p) != utils.NameKey(survivor) {
				losers = append(losers, p)
			}
		}
		applySessionResult(t, []string{survivor}, losers, now)

		rec = &models.GameRecord{
			ID:          uuid.NewString(),
			TableID:     t.ID,
			Mode:        string(models.ModeKiller),
			Players:     g.PlayerNames(),
			Winners:     []string{survivor},
			DurationSec: int(now.Sub(g.StartedAt) / time.Second),
			EndedAt:     now,
		}
		// A killer win does not carry a table streak.
		t.LastWinners = nil
		t.LastStreak = 0
		t.CurrentGame = nil
		t.NoShowPrompt = nil
		return nil
	})
	if err != nil {
		return snap, err
	}
	s.Games.appendHistory(rec)
	return snap, nil
}

func killerState(t *models.Table) *models.KillerState {
	if t.CurrentGame == nil || t.CurrentGame.Killer == nil {
		return nil
	}
	return t.CurrentGame.Killer
}
