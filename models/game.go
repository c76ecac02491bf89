package models

import "time"

// Side tags a player slot in a 1v1/2v2 game. Killer and tournament players
// are untagged.
type Side string

const (
	SideHolder     Side = "holder"
	SideChallenger Side = "challenger"
	SideNone       Side = ""
)

// GamePlayer is one participant of the current game.
type GamePlayer struct {
	Name    string `json:"name"`
	Side    Side   `json:"side,omitempty"`
	EntryID string `json:"entry_id,omitempty"` // queue entry this player was promoted from
}

// CurrentGame is the 0..1 active game on a table. KillerState and
// TournamentState are the closed set of layered variants: exactly one of
// them is non-nil for killer/tournament games, both nil for 1v1/2v2.
type CurrentGame struct {
	Mode            GameMode         `json:"mode"`
	Players         []GamePlayer     `json:"players"`
	StartedAt       time.Time        `json:"started_at"`
	BreakingPlayer  string           `json:"breaking_player,omitempty"`
	ConsecutiveWins int              `json:"consecutive_wins"`
	Killer          *KillerState     `json:"killer_state,omitempty"`
	Tournament      *TournamentState `json:"tournament_state,omitempty"`
}

// SideNames returns the names on the given side, in player order.
func (g *CurrentGame) SideNames(side Side) []string {
	var names []string
	for _, p := range g.Players {
		if p.Side == side {
			names = append(names, p.Name)
		}
	}
	return names
}

// PlayerNames returns every participant name, in player order.
func (g *CurrentGame) PlayerNames() []string {
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Name)
	}
	return names
}
