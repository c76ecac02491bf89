package models

// TournamentFormat is the closed set of supported competition formats.
type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatRoundRobin    TournamentFormat = "round_robin"
	FormatGroupKnockout TournamentFormat = "group_knockout"
)

// TournamentStage distinguishes the two phases of a group_knockout run.
type TournamentStage string

const (
	StageGroup    TournamentStage = "group"
	StageKnockout TournamentStage = "knockout"
)

// TournamentMatch is one race-to-N match. Player1/Player2 stay nil until the
// upstream bracket slot resolves. A bye match is decided immediately and is
// never presented for scoring.
type TournamentMatch struct {
	ID           string          `json:"id"`
	RoundIndex   int             `json:"round_index"`
	MatchIndex   int             `json:"match_index"`
	Stage        TournamentStage `json:"stage,omitempty"`
	GroupIndex   int             `json:"group_index,omitempty"`
	Player1      *string         `json:"player1"`
	Player2      *string         `json:"player2"`
	IsBye        bool            `json:"is_bye"`
	FrameWinners []string        `json:"frame_winners,omitempty"`
	Winner       string          `json:"winner,omitempty"`
}

// FrameWins counts the frames won by the given player in this match.
func (m *TournamentMatch) FrameWins(name string) int {
	n := 0
	for _, w := range m.FrameWinners {
		if w == name {
			n++
		}
	}
	return n
}

// Ready reports whether both slots are resolved and the match is decidable.
func (m *TournamentMatch) Ready() bool {
	return m.Player1 != nil && m.Player2 != nil && m.Winner == ""
}

// TournamentGroup is one group of a group_knockout run, holding the seeded
// member names in seed order.
type TournamentGroup struct {
	Index   int      `json:"index"`
	Players []string `json:"players"`
}

// TournamentState is the bracket/round-robin competition layered on the
// current game.
type TournamentState struct {
	Format         TournamentFormat  `json:"format"`
	RaceTo         int               `json:"race_to"`
	PlayerNames    []string          `json:"player_names"` // seed order
	Matches        []TournamentMatch `json:"matches"`
	Groups         []TournamentGroup `json:"groups,omitempty"`
	Stage          TournamentStage   `json:"stage,omitempty"`
	CurrentMatchID string            `json:"current_match_id,omitempty"`
	Winner         string            `json:"winner,omitempty"`
}

// MatchByID returns a pointer into Matches for the given id, or nil.
func (t *TournamentState) MatchByID(id string) *TournamentMatch {
	for i := range t.Matches {
		if t.Matches[i].ID == id {
			return &t.Matches[i]
		}
	}
	return nil
}

// CurrentMatch returns the match referenced by CurrentMatchID, or nil.
func (t *TournamentState) CurrentMatch() *TournamentMatch {
	if t.CurrentMatchID == "" {
		return nil
	}
	return t.MatchByID(t.CurrentMatchID)
}

// TournamentStanding is one row of a round-robin table.
type TournamentStanding struct {
	Player     string `json:"player"`
	Played     int    `json:"played"`
	Points     int    `json:"points"`
	FramesWon  int    `json:"frames_won"`
	FramesLost int    `json:"frames_lost"`
	Seed       int    `json:"seed"`
}

// FrameDiff is the frame differential used as the first tie-break.
func (s TournamentStanding) FrameDiff() int {
	return s.FramesWon - s.FramesLost
}
