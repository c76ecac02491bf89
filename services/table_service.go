package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TableService owns the table aggregates themselves: creation, lookup,
// settings and session reset, plus the SSE snapshot stream kiosks hang on.
type TableService struct {
	Store *store.TableStore

	Now func() time.Time
}

func NewTableService(st *store.TableStore) *TableService {
	return &TableService{Store: st, Now: time.Now}
}

// CreateTable registers a new table with default settings and a shareable
// join code derived from its name.
func (s *TableService) CreateTable(name string) (store.Snapshot, error) {
	display := strings.Join(strings.Fields(name), " ")
	if display == "" {
		return store.Snapshot{}, Validationf("table name cannot be blank")
	}
	id := uuid.NewString()
	t := &models.Table{
		ID:        id,
		JoinCode:  utils.JoinCode(display, id),
		Name:      display,
		Settings:  models.DefaultSettings(),
		CreatedAt: s.Now(),
	}
	return s.Store.Put(t), nil
}

// GetTable returns the current snapshot.
func (s *TableService) GetTable(id string) (store.Snapshot, error) {
	return s.Store.Get(id)
}

// FindByJoinCode resolves a join code to a table snapshot.
func (s *TableService) FindByJoinCode(code string) (store.Snapshot, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, id := range s.Store.IDs() {
		snap, err := s.Store.Get(id)
		if err != nil {
			continue
		}
		if snap.Table.JoinCode == code {
			return snap, nil
		}
	}
	return store.Snapshot{}, store.ErrTableNotFound
}

// ResetSession clears the queue, any running game and the session stats,
// keeping the table identity, settings and remembered names.
func (s *TableService) ResetSession(tableID string, version int64) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		now := s.Now()
		t.Queue = nil
		t.CurrentGame = nil
		t.NoShowPrompt = nil
		t.Session = models.SessionStats{}
		t.LastWinners = nil
		t.LastStreak = 0
		t.ResetAt = &now
		return nil
	})
}

// UpdateSettings applies a partial settings update. Zero-valued numeric
// fields keep their current value; invalid combinations are rejected whole.
func (s *TableService) UpdateSettings(tableID string, version int64, patch models.TableSettings, winLimitSet, soundSet bool) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		next := t.Settings
		if patch.NoShowTimeoutSeconds != 0 {
			next.NoShowTimeoutSeconds = patch.NoShowTimeoutSeconds
		}
		if patch.NoShowGraceSeconds != 0 {
			next.NoShowGraceSeconds = patch.NoShowGraceSeconds
		}
		if patch.WinLimitCount != 0 {
			next.WinLimitCount = patch.WinLimitCount
		}
		if patch.QueueCapacity != 0 {
			next.QueueCapacity = patch.QueueCapacity
		}
		if patch.KillerMaxPlayers != 0 {
			next.KillerMaxPlayers = patch.KillerMaxPlayers
		}
		if patch.TournamentMaxPlayers != 0 {
			next.TournamentMaxPlayers = patch.TournamentMaxPlayers
		}
		if patch.ChallengeLossPolicy != "" {
			next.ChallengeLossPolicy = patch.ChallengeLossPolicy
		}
		if patch.Theme != "" {
			next.Theme = patch.Theme
		}
		if winLimitSet {
			next.WinLimitEnabled = patch.WinLimitEnabled
		}
		if soundSet {
			next.SoundEnabled = patch.SoundEnabled
		}

		if next.NoShowTimeoutSeconds < 10 {
			return Validationf("no-show timeout must be at least 10 seconds")
		}
		if next.NoShowGraceSeconds < 0 {
			return Validationf("no-show grace cannot be negative")
		}
		if next.WinLimitCount < 1 {
			return Validationf("win limit must be at least 1")
		}
		if next.QueueCapacity < 1 || next.QueueCapacity > 100 {
			return Validationf("queue capacity must be between 1 and 100")
		}
		if next.KillerMaxPlayers < killerMinPlayers {
			return Validationf("killer max players must be at least %d", killerMinPlayers)
		}
		if next.TournamentMaxPlayers < tournamentMinPlayers {
			return Validationf("tournament max players must be at least %d", tournamentMinPlayers)
		}
		switch next.ChallengeLossPolicy {
		case models.ChallengeLossBack, models.ChallengeLossOrigin:
		default:
			return Validationf("unknown challenge loss policy %q", next.ChallengeLossPolicy)
		}

		t.Settings = next
		return nil
	})
}

// StreamTableSSE streams every committed table snapshot to the client as a
// "table" SSE event, starting with the current state. A slow consumer skips
// intermediate snapshots rather than slowing the table down.
func (s *TableService) StreamTableSSE(c *fiber.Ctx) error {
	tableID := c.Params("id")
	sub, err := s.Store.Subscribe(tableID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "table not found"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.Store.Unsubscribe(tableID, sub)

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case snap, ok := <-sub:
				if !ok {
					return
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					log.Printf("[SSE] marshal error for table %s: %v", tableID, err)
					continue
				}
				fmt.Fprintf(w, "event: table\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// client disconnected
					return
				}
			case <-keepalive.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
	return nil
}
