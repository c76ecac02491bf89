package store

import (
	"encoding/json"
	"errors"
	"sync"

	"chalk-table-service/models"
)

var (
	// ErrTableNotFound is returned for an unknown table id.
	ErrTableNotFound = errors.New("table not found")
	// ErrVersionConflict is returned when a mutation carried a stale version
	// precondition. The losing intent is rejected whole; nothing changes.
	ErrVersionConflict = errors.New("table version conflict")
)

// Snapshot is an immutable copy of a table state at a committed version.
type Snapshot struct {
	Version int64        `json:"version"`
	Table   models.Table `json:"table"`
}

// TableStore keeps every live table aggregate in memory and serializes
// mutations per table. Each commit bumps the version and fans the new
// snapshot out to subscribers. Readers only ever see committed copies, so
// they never block a writer beyond the copy itself.
type TableStore struct {
	mu     sync.RWMutex
	tables map[string]*tableSlot
}

type tableSlot struct {
	mu      sync.Mutex
	version int64
	table   *models.Table
	subs    map[chan Snapshot]struct{}
}

// NewTableStore creates an empty store.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]*tableSlot)}
}

// Put registers a table aggregate at version 1. An existing table with the
// same id is replaced (used by session reset).
func (s *TableStore) Put(t *models.Table) Snapshot {
	s.mu.Lock()
	slot, ok := s.tables[t.ID]
	if !ok {
		slot = &tableSlot{subs: make(map[chan Snapshot]struct{})}
		s.tables[t.ID] = slot
	}
	s.mu.Unlock()

	slot.mu.Lock()
	slot.table = cloneTable(t)
	slot.version++
	snap := Snapshot{Version: slot.version, Table: *cloneTable(slot.table)}
	subs := make([]chan Snapshot, 0, len(slot.subs))
	for ch := range slot.subs {
		subs = append(subs, ch)
	}
	slot.mu.Unlock()

	notify(subs, snap)
	return snap
}

// Get returns a snapshot copy of the table.
func (s *TableStore) Get(id string) (Snapshot, error) {
	slot, err := s.slot(id)
	if err != nil {
		return Snapshot{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return Snapshot{Version: slot.version, Table: *cloneTable(slot.table)}, nil
}

// Apply runs fn against a working copy of the table under the table's writer
// lock. If fn returns an error, or expectedVersion (when >= 0) no longer
// matches, nothing is committed. On success the copy replaces the stored
// state, the version is bumped and every subscriber receives the new
// snapshot. This is the only mutation path.
func (s *TableStore) Apply(id string, expectedVersion int64, fn func(*models.Table) error) (Snapshot, error) {
	slot, err := s.slot(id)
	if err != nil {
		return Snapshot{}, err
	}

	slot.mu.Lock()
	if expectedVersion >= 0 && expectedVersion != slot.version {
		slot.mu.Unlock()
		return Snapshot{}, ErrVersionConflict
	}
	working := cloneTable(slot.table)
	if err := fn(working); err != nil {
		slot.mu.Unlock()
		return Snapshot{}, err
	}
	slot.table = working
	slot.version++
	snap := Snapshot{Version: slot.version, Table: *cloneTable(working)}
	subs := make([]chan Snapshot, 0, len(slot.subs))
	for ch := range slot.subs {
		subs = append(subs, ch)
	}
	slot.mu.Unlock()

	notify(subs, snap)
	return snap, nil
}

// Subscribe registers a snapshot channel for the table and returns it primed
// with the current state. The channel is buffered; a consumer that falls
// behind misses intermediate snapshots instead of blocking commits.
func (s *TableStore) Subscribe(id string) (chan Snapshot, error) {
	slot, err := s.slot(id)
	if err != nil {
		return nil, err
	}
	ch := make(chan Snapshot, 16)
	slot.mu.Lock()
	slot.subs[ch] = struct{}{}
	ch <- Snapshot{Version: slot.version, Table: *cloneTable(slot.table)}
	slot.mu.Unlock()
	return ch, nil
}

// Unsubscribe removes a channel registered with Subscribe.
func (s *TableStore) Unsubscribe(id string, ch chan Snapshot) {
	slot, err := s.slot(id)
	if err != nil {
		return
	}
	slot.mu.Lock()
	delete(slot.subs, ch)
	slot.mu.Unlock()
}

// IDs lists the registered table ids.
func (s *TableStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	return ids
}

func (s *TableStore) slot(id string) (*tableSlot, error) {
	s.mu.RLock()
	slot, ok := s.tables[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrTableNotFound
	}
	return slot, nil
}

func notify(subs []chan Snapshot, snap Snapshot) {
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// subscriber buffer full, drop rather than block the writer
		}
	}
}

// cloneTable deep-copies a table via JSON. The aggregate is plain data, so a
// round-trip is both correct and cheap at queue scale.
func cloneTable(t *models.Table) *models.Table {
	raw, _ := json.Marshal(t)
	out := &models.Table{}
	_ = json.Unmarshal(raw, out)
	return out
}
