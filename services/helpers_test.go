package services

import (
	"sort"
	"testing"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"

	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

// memHistory is an in-memory HistoryRepo for tests.
type memHistory struct {
	records []models.GameRecord
}

func (m *memHistory) Append(rec *models.GameRecord) error {
	m.records = append(m.records, *rec)
	return nil
}

func (m *memHistory) ListBetween(tableID string, from, to time.Time) ([]models.GameRecord, error) {
	var out []models.GameRecord
	for _, r := range m.records {
		if r.TableID == tableID && !r.EndedAt.Before(from) && r.EndedAt.Before(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.Before(out[j].EndedAt) })
	return out, nil
}

func (m *memHistory) ListRecent(tableID string, limit int) ([]models.GameRecord, error) {
	all, _ := m.ListBetween(tableID, time.Time{}, testClock.Add(1000*time.Hour))
	var out []models.GameRecord
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// rig wires every service against one in-memory table with a fixed,
// manually advanced clock.
type rig struct {
	t       *testing.T
	store   *store.TableStore
	hist    *memHistory
	tables  *TableService
	queues  *QueueService
	games   *GameService
	killers *KillerService
	tourns  *TournamentService
	stats   *StatsService

	tableID string
	now     time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{t: t, store: store.NewTableStore(), hist: &memHistory{}, now: testClock}
	clock := func() time.Time { return r.now }

	r.tables = NewTableService(r.store)
	r.tables.Now = clock
	r.queues = NewQueueService(r.store)
	r.queues.Now = clock
	r.games = NewGameService(r.store, r.hist)
	r.games.Now = clock
	r.killers = NewKillerService(r.store, r.games, r.hist)
	r.killers.Now = clock
	r.tourns = NewTournamentService(r.store, r.games, r.hist)
	r.tourns.Now = clock
	r.stats = NewStatsService(r.store, r.hist)
	r.stats.Now = clock

	snap, err := r.tables.CreateTable("Corner Table")
	require.NoError(t, err)
	r.tableID = snap.Table.ID
	return r
}

func (r *rig) advance(d time.Duration) { r.now = r.now.Add(d) }

func (r *rig) table() models.Table {
	r.t.Helper()
	snap, err := r.store.Get(r.tableID)
	require.NoError(r.t, err)
	return snap.Table
}

func (r *rig) join(mode models.GameMode, names ...string) string {
	r.t.Helper()
	_, id, err := r.queues.Enqueue(r.tableID, -1, names, mode, nil)
	require.NoError(r.t, err)
	return id
}

func (r *rig) startGame() models.Table {
	r.t.Helper()
	snap, err := r.games.StartNextGame(r.tableID, -1)
	require.NoError(r.t, err)
	return snap.Table
}

func (r *rig) report(side models.Side) models.Table {
	r.t.Helper()
	snap, err := r.games.ReportResult(r.tableID, -1, side, nil)
	require.NoError(r.t, err)
	return snap.Table
}

// queueNames flattens the queue to first player names, in order.
func queueNames(t models.Table) []string {
	var names []string
	for _, e := range t.Queue {
		names = append(names, e.PlayerNames[0])
	}
	return names
}

func updateSettings(r *rig, mutate func(*models.TableSettings)) {
	r.t.Helper()
	_, err := r.store.Apply(r.tableID, -1, func(t *models.Table) error {
		mutate(&t.Settings)
		return nil
	})
	require.NoError(r.t, err)
}
