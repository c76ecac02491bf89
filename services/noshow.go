package services

import (
	"errors"
	"log"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
)

func secondsDuration(s int) time.Duration { return time.Duration(s) * time.Second }

// The no-show flow: calling players stamps a deadline on their entries.
// Clients derive the countdown from the stored deadline, never from a local
// timer. When the deadline lapses the sweeper opens a prompt with every
// called entry pre-selected; within the grace window the kiosk can dismiss,
// edit the selection, or resolve. At the end of the grace window the sweeper
// resolves once using whatever is selected. A dismissal that lands first
// always wins: the auto-resolution re-checks state under the table lock and
// no-ops when the prompt is gone.

// DismissNoShow clears the pending deadlines: the called players showed up.
// Valid any time deadlines exist, before or after expiry.
func (s *GameService) DismissNoShow(tableID string, version int64) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.CurrentGame == nil {
			return Validationf("no game in progress")
		}
		cleared := false
		for i := range t.Queue {
			if t.Queue[i].Status == models.EntryCalled && t.Queue[i].NoShowDeadline != nil {
				t.Queue[i].NoShowDeadline = nil
				cleared = true
			}
		}
		if !cleared && t.NoShowPrompt == nil {
			return Validationf("no no-show countdown is running")
		}
		t.NoShowPrompt = nil
		return nil
	})
}

// UpdateNoShowSelection replaces the marked set on an open prompt.
func (s *GameService) UpdateNoShowSelection(tableID string, version int64, entryIDs []string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.NoShowPrompt == nil {
			return Validationf("no no-show prompt is open")
		}
		selected := make(map[string]bool)
		for _, id := range entryIDs {
			e := t.EntryByID(id)
			if e == nil || e.Status != models.EntryCalled {
				return Validationf("entry %s was not called", id)
			}
			selected[id] = true
		}
		for _, e := range t.CalledEntries() {
			if !selected[e.ID] {
				selected[e.ID] = false
			}
		}
		t.NoShowPrompt.Selected = selected
		return nil
	})
}

// ResolveNoShows removes the marked entries as forfeits and re-runs the
// matchmaker. Passing no ids resolves with the prompt's stored selection.
func (s *GameService) ResolveNoShows(tableID string, version int64, entryIDs []string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.NoShowPrompt == nil {
			return Validationf("no no-show prompt is open")
		}
		ids := entryIDs
		if len(ids) == 0 {
			for id, marked := range t.NoShowPrompt.Selected {
				if marked {
					ids = append(ids, id)
				}
			}
		}
		return s.resolveNoShows(t, ids)
	})
}

func (s *GameService) resolveNoShows(t *models.Table, ids []string) error {
	for _, id := range ids {
		e := t.EntryByID(id)
		if e == nil {
			continue
		}
		if e.Status != models.EntryCalled {
			return Validationf("entry %s was not called", id)
		}
		t.RemoveEntry(id)
	}
	restoreCalledEntries(t)
	t.CurrentGame = nil
	t.NoShowPrompt = nil

	// Queue corrected; try to fill the table again. An empty or incompatible
	// queue just leaves the table idle.
	if err := s.startNextGame(t); err != nil && !IsValidation(err) {
		return err
	}
	return nil
}

// SweepNoShows is the scheduler tick: opens the prompt when a deadline has
// lapsed and fires the one-shot auto-resolution when the grace window ends.
// Idempotent; safe to run on every tick.
func (s *GameService) SweepNoShows(tableID string) {
	now := s.Now()
	_, err := s.Store.Apply(tableID, -1, func(t *models.Table) error {
		if t.CurrentGame == nil {
			return errNoChange
		}

		if t.NoShowPrompt == nil {
			called := t.CalledEntries()
			expired := false
			var deadline *models.NoShowPrompt
			for _, e := range called {
				if e.NoShowDeadline != nil && !e.NoShowDeadline.After(now) {
					expired = true
					grace := t.Settings.NoShowGraceSeconds
					deadline = &models.NoShowPrompt{
						ExpiredAt:     *e.NoShowDeadline,
						AutoResolveAt: e.NoShowDeadline.Add(secondsDuration(grace)),
						Selected:      make(map[string]bool),
					}
					break
				}
			}
			if !expired {
				return errNoChange
			}
			// Everyone called defaults to marked; the kiosk can untick.
			for _, e := range called {
				deadline.Selected[e.ID] = true
			}
			t.NoShowPrompt = deadline
			return nil
		}

		if now.Before(t.NoShowPrompt.AutoResolveAt) {
			return errNoChange
		}
		var ids []string
		for id, marked := range t.NoShowPrompt.Selected {
			if marked {
				ids = append(ids, id)
			}
		}
		return s.resolveNoShows(t, ids)
	})
	if err != nil && !errors.Is(err, errNoChange) {
		log.Printf("[NoShow] sweep failed for table %s: %v", tableID, err)
	}
}
