package models

import "time"

// EntryStatus is the lifecycle state of a queue entry.
type EntryStatus string

const (
	EntryWaiting EntryStatus = "waiting"
	EntryOnHold  EntryStatus = "on_hold"
	EntryCalled  EntryStatus = "called"
)

// QueueEntry is one waiting slot in the table queue: a single player, a
// doubles pair, or a killer/tournament sign-up list.
type QueueEntry struct {
	ID          string      `json:"id"`
	PlayerNames []string    `json:"player_names"`
	Mode        GameMode    `json:"game_mode"`
	Status      EntryStatus `json:"status"`
	JoinedAt    time.Time   `json:"joined_at"`

	// HoldUntil is set while the entry is parked; the sweeper flags
	// HoldExpired when it lapses but never removes the entry.
	HoldUntil   *time.Time `json:"hold_until,omitempty"`
	HoldExpired bool       `json:"hold_expired,omitempty"`

	// NoShowDeadline is set when the entry is called to the table.
	NoShowDeadline *time.Time `json:"no_show_deadline,omitempty"`

	// UserIDs maps a claimed player name to the opaque external user id that
	// claimed it. The core records claims, it never validates them.
	UserIDs map[string]string `json:"user_ids,omitempty"`
}
