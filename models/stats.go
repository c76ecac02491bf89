package models

import "time"

// PlayerStats are a single player's counters for a session or time window.
// Derived only: clients never mutate these directly.
type PlayerStats struct {
	Name          string    `json:"name"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	GamesPlayed   int       `json:"games_played"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
}

// WinRate returns wins/games, 0 for a player with no games.
func (p PlayerStats) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed)
}

// KingOfTable is the crowned streak holder.
type KingOfTable struct {
	PlayerName      string    `json:"player_name"`
	ConsecutiveWins int       `json:"consecutive_wins"`
	CrownedAt       time.Time `json:"crowned_at"`
}

// SessionStats aggregates the running session: per-player counters plus the
// current king. Recomputed incrementally as games finish, reset with the
// table.
type SessionStats struct {
	Players []PlayerStats `json:"players"`
	King    *KingOfTable  `json:"king_of_table,omitempty"`
}

// Player returns a pointer to the named player's stats, creating the row in
// first-seen order when absent.
func (s *SessionStats) Player(name string, now time.Time) *PlayerStats {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return &s.Players[i]
		}
	}
	s.Players = append(s.Players, PlayerStats{Name: name, FirstSeenAt: now})
	return &s.Players[len(s.Players)-1]
}
