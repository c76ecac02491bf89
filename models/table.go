package models

import (
	"time"
)

// GameMode identifies how a queue entry wants to play.
type GameMode string

const (
	ModeSingles    GameMode = "singles"
	ModeDoubles    GameMode = "doubles"
	ModeKiller     GameMode = "killer"
	ModeChallenge  GameMode = "challenge"
	ModeTournament GameMode = "tournament"
)

// PlayersPerSide returns how many names a queue entry of this mode carries
// per side. Killer and tournament entries are open-ended and return 0.
func (m GameMode) PlayersPerSide() int {
	switch m {
	case ModeSingles, ModeChallenge:
		return 1
	case ModeDoubles:
		return 2
	default:
		return 0
	}
}

// ChallengeLossPolicy controls where a losing challenger of a challenge
// match is requeued.
type ChallengeLossPolicy string

const (
	ChallengeLossBack   ChallengeLossPolicy = "back"   // back of the queue
	ChallengeLossOrigin ChallengeLossPolicy = "origin" // original position
)

// TableSettings are the per-table knobs. Sound/theme style settings belong
// to the kiosk and are carried opaquely.
type TableSettings struct {
	NoShowTimeoutSeconds int                 `json:"no_show_timeout_seconds"`
	NoShowGraceSeconds   int                 `json:"no_show_grace_seconds"`
	WinLimitEnabled      bool                `json:"win_limit_enabled"`
	WinLimitCount        int                 `json:"win_limit_count"`
	QueueCapacity        int                 `json:"queue_capacity"`
	KillerMaxPlayers     int                 `json:"killer_max_players"`
	TournamentMaxPlayers int                 `json:"tournament_max_players"`
	ChallengeLossPolicy  ChallengeLossPolicy `json:"challenge_loss_policy"`
	SoundEnabled         bool                `json:"sound_enabled"`
	Theme                string              `json:"theme,omitempty"`
}

// DefaultSettings returns the settings a freshly created table starts with.
func DefaultSettings() TableSettings {
	return TableSettings{
		NoShowTimeoutSeconds: 90,
		NoShowGraceSeconds:   15,
		WinLimitEnabled:      false,
		WinLimitCount:        3,
		QueueCapacity:        25,
		KillerMaxPlayers:     10,
		TournamentMaxPlayers: 32,
		ChallengeLossPolicy:  ChallengeLossBack,
		SoundEnabled:         true,
	}
}

// NoShowPrompt is the escalation window shown after a no-show deadline
// lapses. Selected holds the per-entry checkboxes (default: every called
// entry checked). AutoResolveAt is the hard deadline after which the sweeper
// resolves using the stored selection, once.
type NoShowPrompt struct {
	ExpiredAt     time.Time       `json:"expired_at"`
	AutoResolveAt time.Time       `json:"auto_resolve_at"`
	Selected      map[string]bool `json:"selected"` // entry id -> marked as no-show
}

// Table is the aggregate root: one per physical pool table. Every accepted
// intent mutates it atomically through the store; it is never deleted, only
// reset between sessions.
type Table struct {
	ID          string        `json:"id"`
	JoinCode    string        `json:"join_code"`
	Name        string        `json:"name"`
	Queue       []QueueEntry  `json:"queue"`
	CurrentGame *CurrentGame  `json:"current_game,omitempty"`
	Session     SessionStats  `json:"session_stats"`
	Settings    TableSettings `json:"settings"`
	RecentNames []string      `json:"recent_names"`
	// LastWinners is the side that won the most recent game, used to inherit
	// the consecutive-win streak when the same holder starts the next game.
	LastWinners  []string      `json:"last_winners,omitempty"`
	LastStreak   int           `json:"last_streak"`
	NoShowPrompt *NoShowPrompt `json:"no_show_prompt,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ResetAt      *time.Time    `json:"reset_at,omitempty"`
}

// EntryByID returns a pointer into Queue for the given entry id, or nil.
func (t *Table) EntryByID(id string) *QueueEntry {
	for i := range t.Queue {
		if t.Queue[i].ID == id {
			return &t.Queue[i]
		}
	}
	return nil
}

// RemoveEntry deletes the entry with the given id from the queue, keeping
// the order of everything else. Reports whether it was present.
func (t *Table) RemoveEntry(id string) bool {
	for i := range t.Queue {
		if t.Queue[i].ID == id {
			t.Queue = append(t.Queue[:i], t.Queue[i+1:]...)
			return true
		}
	}
	return false
}

// CalledEntries returns the queue entries currently promoted into the game.
func (t *Table) CalledEntries() []*QueueEntry {
	var called []*QueueEntry
	for i := range t.Queue {
		if t.Queue[i].Status == EntryCalled {
			called = append(called, &t.Queue[i])
		}
	}
	return called
}
