// workers/history_archiver.go
package workers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chalk-table-service/services"
	"chalk-table-service/store"
	"chalk-table-service/utils"
)

// HistoryArchiver exports each table's finished games for the previous day
// as a JSON blob to the archive bucket. It only runs when the bucket is
// configured; the live service never depends on it.
type HistoryArchiver struct {
	Store   *store.TableStore
	History services.HistoryRepo

	Now func() time.Time
}

func NewHistoryArchiver(st *store.TableStore, history services.HistoryRepo) *HistoryArchiver {
	return &HistoryArchiver{Store: st, History: history, Now: time.Now}
}

type archiveDocument struct {
	TableID    string              `json:"table_id"`
	Date       string              `json:"date"`
	GameCount  int                 `json:"game_count"`
	Games      []archiveGame       `json:"games"`
	ExportedAt time.Time           `json:"exported_at"`
}

type archiveGame struct {
	ID              string    `json:"id"`
	Mode            string    `json:"mode"`
	Players         []string  `json:"players"`
	Winners         []string  `json:"winners"`
	WinnerSide      string    `json:"winner_side,omitempty"`
	DurationSec     int       `json:"duration_sec"`
	ConsecutiveWins int       `json:"consecutive_wins,omitempty"`
	EndedAt         time.Time `json:"ended_at"`
}

// ArchiveYesterday exports the previous calendar day for every registered
// table. Tables with no games that day are skipped.
func (a *HistoryArchiver) ArchiveYesterday() {
	if !utils.R2Configured() {
		return
	}
	now := a.Now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayStart := dayEnd.AddDate(0, 0, -1)

	for _, tableID := range a.Store.IDs() {
		if err := a.archiveDay(tableID, dayStart, dayEnd); err != nil {
			log.Printf("[Archiver] export failed for table %s: %v", tableID, err)
		}
	}
}

func (a *HistoryArchiver) archiveDay(tableID string, from, to time.Time) error {
	records, err := a.History.ListBetween(tableID, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	doc := archiveDocument{
		TableID:    tableID,
		Date:       from.Format("2006-01-02"),
		GameCount:  len(records),
		ExportedAt: a.Now(),
	}
	for _, r := range records {
		doc.Games = append(doc.Games, archiveGame{
			ID:              r.ID,
			Mode:            r.Mode,
			Players:         r.Players,
			Winners:         r.Winners,
			WinnerSide:      r.WinnerSide,
			DurationSec:     r.DurationSec,
			ConsecutiveWins: r.ConsecutiveWins,
			EndedAt:         r.EndedAt,
		})
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("archives/%s/%s.json", tableID, doc.Date)
	if err := utils.UploadBytesToR2(key, payload, "application/json"); err != nil {
		return err
	}
	log.Printf("[Archiver] exported %d games for table %s (%s)", len(records), tableID, doc.Date)
	return nil
}
