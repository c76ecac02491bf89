package services

import (
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"

	"github.com/google/uuid"
)

const recentNamesKept = 20

// QueueService owns the waiting list: joining, leaving, manual reordering
// and holds. It enforces the table invariants (capacity, no double-booking)
// before anything is committed.
type QueueService struct {
	Store *store.TableStore

	// Now is the clock, swappable in tests.
	Now func() time.Time
}

func NewQueueService(st *store.TableStore) *QueueService {
	return &QueueService{Store: st, Now: time.Now}
}

// Enqueue appends a new entry to the back of the queue.
func (s *QueueService) Enqueue(tableID string, version int64, names []string, mode models.GameMode, claims map[string]string) (store.Snapshot, string, error) {
	entryID := uuid.NewString()
	snap, err := s.Store.Apply(tableID, version, func(t *models.Table) error {
		cleaned, err := cleanNames(names, mode, t.Settings)
		if err != nil {
			return err
		}
		if len(t.Queue) >= t.Settings.QueueCapacity {
			return Validationf("queue is full (%d entries)", t.Settings.QueueCapacity)
		}
		for _, n := range cleaned {
			if playerBusy(t, utils.NameKey(n)) {
				return Validationf("%s is already queued or playing", n)
			}
		}

		entry := models.QueueEntry{
			ID:          entryID,
			PlayerNames: cleaned,
			Mode:        mode,
			Status:      models.EntryWaiting,
			JoinedAt:    s.Now(),
		}
		// Claims arrive keyed by whatever the caller typed; record them
		// against the cleaned display name actually stored on the entry.
		for name, userID := range claims {
			if userID == "" {
				continue
			}
			key := utils.NameKey(name)
			for _, n := range cleaned {
				if utils.NameKey(n) == key {
					if entry.UserIDs == nil {
						entry.UserIDs = make(map[string]string)
					}
					entry.UserIDs[n] = userID
					break
				}
			}
		}
		t.Queue = append(t.Queue, entry)
		rememberNames(t, cleaned)
		return nil
	})
	if err != nil {
		return snap, "", err
	}
	return snap, entryID, nil
}

// Remove drops an entry from the queue. Called entries belong to the active
// game and cannot be removed from here.
func (s *QueueService) Remove(tableID string, version int64, entryID string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		e := t.EntryByID(entryID)
		if e == nil {
			return Validationf("queue entry not found")
		}
		if e.Status == models.EntryCalled {
			return Validationf("entry has been called to the table; cancel the game instead")
		}
		t.RemoveEntry(entryID)
		return nil
	})
}

// Reorder moves an entry to a new position (drag reordering on the kiosk).
func (s *QueueService) Reorder(tableID string, version int64, entryID string, newIndex int) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		e := t.EntryByID(entryID)
		if e == nil {
			return Validationf("queue entry not found")
		}
		if e.Status == models.EntryCalled {
			return Validationf("cannot reorder an entry that has been called")
		}
		moved := *e
		t.RemoveEntry(entryID)
		if newIndex < 0 {
			newIndex = 0
		}
		if newIndex > len(t.Queue) {
			newIndex = len(t.Queue)
		}
		t.Queue = append(t.Queue[:newIndex], append([]models.QueueEntry{moved}, t.Queue[newIndex:]...)...)
		return nil
	})
}

// Hold parks a waiting entry without losing its position. The sweeper flags
// the hold as expired after the duration; the entry is never auto-removed.
func (s *QueueService) Hold(tableID string, version int64, entryID string, d time.Duration) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		e := t.EntryByID(entryID)
		if e == nil {
			return Validationf("queue entry not found")
		}
		if e.Status != models.EntryWaiting {
			return Validationf("only waiting entries can be put on hold")
		}
		if d <= 0 {
			return Validationf("hold duration must be positive")
		}
		until := s.Now().Add(d)
		e.Status = models.EntryOnHold
		e.HoldUntil = &until
		e.HoldExpired = false
		return nil
	})
}

// Unhold returns a held entry to the waiting pool, keeping its position.
func (s *QueueService) Unhold(tableID string, version int64, entryID string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		e := t.EntryByID(entryID)
		if e == nil {
			return Validationf("queue entry not found")
		}
		if e.Status != models.EntryOnHold {
			return Validationf("entry is not on hold")
		}
		e.Status = models.EntryWaiting
		e.HoldUntil = nil
		e.HoldExpired = false
		return nil
	})
}

// Claim records an opaque identity claim against a name on an entry. The
// core never validates the identity, it only stores it.
func (s *QueueService) Claim(tableID string, version int64, entryID, playerName, userID string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		e := t.EntryByID(entryID)
		if e == nil {
			return Validationf("queue entry not found")
		}
		key := utils.NameKey(playerName)
		for _, n := range e.PlayerNames {
			if utils.NameKey(n) == key {
				if e.UserIDs == nil {
					e.UserIDs = make(map[string]string)
				}
				e.UserIDs[n] = userID
				return nil
			}
		}
		return Validationf("%s is not on this entry", playerName)
	})
}

// SweepHolds flags expired holds so the kiosk can surface them. Idempotent.
func (s *QueueService) SweepHolds(tableID string) {
	now := s.Now()
	_, _ = s.Store.Apply(tableID, -1, func(t *models.Table) error {
		changed := false
		for i := range t.Queue {
			e := &t.Queue[i]
			if e.Status == models.EntryOnHold && !e.HoldExpired &&
				e.HoldUntil != nil && !e.HoldUntil.After(now) {
				e.HoldExpired = true
				changed = true
			}
		}
		if !changed {
			return errNoChange
		}
		return nil
	})
}

func cleanNames(names []string, mode models.GameMode, settings models.TableSettings) ([]string, error) {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, n := range names {
		display := utils.DisplayName(n)
		if display == "" {
			return nil, Validationf("player names cannot be blank")
		}
		key := utils.NameKey(display)
		if seen[key] {
			return nil, Validationf("duplicate name %s on one entry", display)
		}
		seen[key] = true
		cleaned = append(cleaned, display)
	}

	switch mode {
	case models.ModeSingles, models.ModeChallenge:
		if len(cleaned) != 1 {
			return nil, Validationf("%s entries take exactly one player", mode)
		}
	case models.ModeDoubles:
		if len(cleaned) != 2 {
			return nil, Validationf("doubles entries take exactly two players")
		}
	case models.ModeKiller:
		if len(cleaned) < 1 || len(cleaned) > settings.KillerMaxPlayers {
			return nil, Validationf("killer sign-ups take 1 to %d players", settings.KillerMaxPlayers)
		}
	case models.ModeTournament:
		if len(cleaned) < 1 || len(cleaned) > settings.TournamentMaxPlayers {
			return nil, Validationf("tournament sign-ups take 1 to %d players", settings.TournamentMaxPlayers)
		}
	default:
		return nil, Validationf("unknown game mode %q", mode)
	}
	return cleaned, nil
}

// playerBusy reports whether the normalized name already sits in the queue
// or the current game.
func playerBusy(t *models.Table, nameKey string) bool {
	for _, e := range t.Queue {
		for _, n := range e.PlayerNames {
			if utils.NameKey(n) == nameKey {
				return true
			}
		}
	}
	if t.CurrentGame != nil {
		for _, p := range t.CurrentGame.Players {
			if utils.NameKey(p.Name) == nameKey {
				return true
			}
		}
	}
	return false
}

func rememberNames(t *models.Table, names []string) {
	for _, n := range names {
		out := []string{n}
		for _, existing := range t.RecentNames {
			if utils.NameKey(existing) != utils.NameKey(n) {
				out = append(out, existing)
			}
		}
		if len(out) > recentNamesKept {
			out = out[:recentNamesKept]
		}
		t.RecentNames = out
	}
}
