package models

import (
	"encoding/json"
	"time"
)

// GameRecord is the immutable append-only record of a finished game and the
// source of truth for the windowed stats views. Persisted via GORM.
type GameRecord struct {
	ID      string `json:"id" gorm:"primaryKey"`
	TableID string `json:"table_id" gorm:"not null;index"`
	Mode    string `json:"mode" gorm:"type:varchar(16);not null"`

	// PlayersJSON is the full participant list serialized as a JSON array.
	PlayersJSON string `json:"-" gorm:"type:text;column:players_json"`
	// WinnersJSON is the winning name list serialized as a JSON array.
	WinnersJSON string `json:"-" gorm:"type:text;column:winners_json"`

	WinnerSide      string    `json:"winner_side,omitempty" gorm:"type:varchar(16)"`
	DurationSec     int       `json:"duration_sec" gorm:"default:0"`
	ConsecutiveWins int       `json:"consecutive_wins" gorm:"default:0"`
	EndedAt         time.Time `json:"ended_at" gorm:"not null;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Decoded views of the JSON columns (not stored).
	Players []string `json:"players" gorm:"-"`
	Winners []string `json:"winners" gorm:"-"`
}

// EncodePlayers fills the JSON columns from the decoded slices.
func (r *GameRecord) EncodePlayers() {
	p, _ := json.Marshal(r.Players)
	w, _ := json.Marshal(r.Winners)
	r.PlayersJSON = string(p)
	r.WinnersJSON = string(w)
}

// DecodePlayers fills the decoded slices from the JSON columns.
func (r *GameRecord) DecodePlayers() {
	if r.PlayersJSON != "" {
		_ = json.Unmarshal([]byte(r.PlayersJSON), &r.Players)
	}
	if r.WinnersJSON != "" {
		_ = json.Unmarshal([]byte(r.WinnersJSON), &r.Winners)
	}
}

// WonBy reports whether the named player is flagged as a winner.
func (r *GameRecord) WonBy(name string) bool {
	for _, w := range r.Winners {
		if w == name {
			return true
		}
	}
	return false
}
