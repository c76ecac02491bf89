package services

import (
	"sort"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"

	"github.com/google/uuid"
)

const (
	tournamentMinPlayers      = 3
	groupKnockoutMinPlayers   = 5
	groupKnockoutSmallGroups  = 2 // up to 11 players
	groupKnockoutLargeGroups  = 4
	groupKnockoutLargeCutover = 12
)

// TournamentService runs bracket, round-robin and group-then-knockout
// competitions on top of the game lifecycle. All progress lives in the
// CurrentGame until FinishTournament; cancelling discards it whole.
type TournamentService struct {
	Store   *store.TableStore
	Games   *GameService
	History HistoryRepo

	Now func() time.Time
}

func NewTournamentService(st *store.TableStore, games *GameService, history HistoryRepo) *TournamentService {
	return &TournamentService{Store: st, Games: games, History: history, Now: time.Now}
}

// StartTournament starts a competition from an explicit seeded player list,
// bypassing the matchmaker. Queue sign-ups fully covered by the list are
// consumed.
func (s *TournamentService) StartTournament(tableID string, version int64, names []string, format models.TournamentFormat, raceTo int) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		if t.CurrentGame != nil {
			return Validationf("a game is already in progress")
		}
		if raceTo <= 0 {
			raceTo = 1
		}
		cleaned := make([]string, 0, len(names))
		seen := make(map[string]bool)
		for _, n := range names {
			display := utils.DisplayName(n)
			if display == "" {
				return Validationf("player names cannot be blank")
			}
			key := utils.NameKey(display)
			if seen[key] {
				return Validationf("duplicate name %s", display)
			}
			seen[key] = true
			cleaned = append(cleaned, display)
		}

		minPlayers := tournamentMinPlayers
		if format == models.FormatGroupKnockout {
			minPlayers = groupKnockoutMinPlayers
		}
		switch format {
		case models.FormatKnockout, models.FormatRoundRobin, models.FormatGroupKnockout:
		default:
			return Validationf("unknown tournament format %q", format)
		}
		if len(cleaned) < minPlayers {
			return Validationf("%s needs at least %d players", format, minPlayers)
		}
		if len(cleaned) > t.Settings.TournamentMaxPlayers {
			return Validationf("tournaments take at most %d players", t.Settings.TournamentMaxPlayers)
		}
		if err := consumeEntriesFor(t, cleaned); err != nil {
			return err
		}

		var state *models.TournamentState
		switch format {
		case models.FormatKnockout:
			state = buildKnockout(cleaned, raceTo)
		case models.FormatRoundRobin:
			state = buildRoundRobin(cleaned, raceTo)
		case models.FormatGroupKnockout:
			state = buildGroupKnockout(cleaned, raceTo)
		}

		var players []models.GamePlayer
		for _, n := range cleaned {
			players = append(players, models.GamePlayer{Name: n})
		}
		t.CurrentGame = &models.CurrentGame{
			Mode:       models.ModeTournament,
			Players:    players,
			StartedAt:  s.Now(),
			Tournament: state,
		}
		t.NoShowPrompt = nil
		return nil
	})
}

// ReportTournamentFrame scores one frame of the current match for the named
// player. Reaching raceTo frames decides the match and advances the
// competition.
func (s *TournamentService) ReportTournamentFrame(tableID string, version int64, winnerName string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		ts := tournamentState(t)
		if ts == nil {
			return Validationf("no tournament in progress")
		}
		if ts.Winner != "" {
			return Validationf("tournament is already decided")
		}
		m := ts.CurrentMatch()
		if m == nil || !m.Ready() {
			return Validationf("no playable match is selected")
		}
		key := utils.NameKey(winnerName)
		var name string
		switch key {
		case utils.NameKey(*m.Player1):
			name = *m.Player1
		case utils.NameKey(*m.Player2):
			name = *m.Player2
		default:
			return Validationf("%s is not playing this match", winnerName)
		}

		m.FrameWinners = append(m.FrameWinners, name)
		if m.FrameWins(name) < ts.RaceTo {
			return nil
		}
		m.Winner = name
		advanceTournament(ts, m)
		return nil
	})
}

// SelectTournamentMatch points the table at another playable match
// (round-robin and group play have no required order).
func (s *TournamentService) SelectTournamentMatch(tableID string, version int64, matchID string) (store.Snapshot, error) {
	return s.Store.Apply(tableID, version, func(t *models.Table) error {
		ts := tournamentState(t)
		if ts == nil {
			return Validationf("no tournament in progress")
		}
		m := ts.MatchByID(matchID)
		if m == nil {
			return Validationf("match not found")
		}
		if !m.Ready() {
			return Validationf("match is not playable")
		}
		ts.CurrentMatchID = m.ID
		return nil
	})
}

// FinishTournament writes the consolidated history record and returns the
// table to idle. Only legal once the winner is decided.
func (s *TournamentService) FinishTournament(tableID string, version int64, winner string) (store.Snapshot, error) {
	var rec *models.GameRecord
	snap, err := s.Store.Apply(tableID, version, func(t *models.Table) error {
		ts := tournamentState(t)
		if ts == nil {
			return Validationf("no tournament in progress")
		}
		if ts.Winner == "" {
			return Validationf("tournament is not decided yet")
		}
		if winner != "" && utils.NameKey(winner) != utils.NameKey(ts.Winner) {
			return Validationf("winner must be %s", ts.Winner)
		}

		g := t.CurrentGame
		now := s.Now()
		var losers []string
		for _, p := range g.PlayerNames() {
			if utils.NameKey(p) != utils.NameKey(ts.Winner) {
				losers = append(losers, p)
			}
		}
		applySessionResult(t, []string{ts.Winner}, losers, now)

		rec = &models.GameRecord{
			ID:          uuid.NewString(),
			TableID:     t.ID,
			Mode:        string(models.ModeTournament),
			Players:     g.PlayerNames(),
			Winners:     []string{ts.Winner},
			DurationSec: int(now.Sub(g.StartedAt) / time.Second),
			EndedAt:     now,
		}
		t.LastWinners = nil
		t.LastStreak = 0
		t.CurrentGame = nil
		t.NoShowPrompt = nil
		return nil
	})
	if err != nil {
		return snap, err
	}
	s.Games.appendHistory(rec)
	return snap, nil
}

func tournamentState(t *models.Table) *models.TournamentState {
	if t.CurrentGame == nil || t.CurrentGame.Tournament == nil {
		return nil
	}
	return t.CurrentGame.Tournament
}

// --- bracket generation ---

// buildKnockout pads the seed list to the next power of two with byes and
// lays the field out in standard bracket order, so byes land against the top
// seeds and never meet each other. Bye matches are decided immediately.
func buildKnockout(players []string, raceTo int) *models.TournamentState {
	state := &models.TournamentState{
		Format:      models.FormatKnockout,
		RaceTo:      raceTo,
		PlayerNames: append([]string(nil), players...),
	}
	state.Matches = knockoutTree(firstRoundMatches(players, ""), "")
	resolveByes(state)
	state.CurrentMatchID = nextPlayableMatch(state)
	return state
}

// firstRoundMatches pairs the padded field in standard bracket order
// (1v2^k, in the 2-4-1-3 pattern), leaving empty slots as byes.
func firstRoundMatches(players []string, stage models.TournamentStage) []models.TournamentMatch {
	size := 1
	for size < len(players) {
		size *= 2
	}
	order := bracketOrder(size)
	var matches []models.TournamentMatch
	for i := 0; i < size; i += 2 {
		m := models.TournamentMatch{
			ID:         uuid.NewString(),
			RoundIndex: 0,
			MatchIndex: i / 2,
			Stage:      stage,
		}
		if seed := order[i] - 1; seed < len(players) {
			name := players[seed]
			m.Player1 = &name
		}
		if seed := order[i+1] - 1; seed < len(players) {
			name := players[seed]
			m.Player2 = &name
		}
		m.IsBye = (m.Player1 == nil) != (m.Player2 == nil)
		matches = append(matches, m)
	}
	return matches
}

// bracketOrder returns the seed numbers (1-based) in bracket position order
// for a power-of-two field, e.g. 8 -> [1 8 4 5 2 7 3 6].
func bracketOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		for _, s := range order {
			next = append(next, s, len(order)*2+1-s)
		}
		order = next
	}
	return order
}

// knockoutTree appends the empty later rounds above the given first round.
func knockoutTree(first []models.TournamentMatch, stage models.TournamentStage) []models.TournamentMatch {
	all := first
	for count, round := len(first)/2, 1; count >= 1; count, round = count/2, round+1 {
		for i := 0; i < count; i++ {
			all = append(all, models.TournamentMatch{
				ID:         uuid.NewString(),
				RoundIndex: round,
				MatchIndex: i,
				Stage:      stage,
			})
		}
		if count == 1 {
			break
		}
	}
	return all
}

// resolveByes walks the bracket decided-bye matches and advances their
// winners. Byes never meet, so one pass suffices.
func resolveByes(state *models.TournamentState) {
	for i := range state.Matches {
		m := &state.Matches[i]
		if !m.IsBye || m.Winner != "" {
			continue
		}
		if m.Player1 != nil {
			m.Winner = *m.Player1
		} else if m.Player2 != nil {
			m.Winner = *m.Player2
		}
		if m.Winner != "" {
			advanceKnockoutWinner(state, m)
		}
	}
}

func buildRoundRobin(players []string, raceTo int) *models.TournamentState {
	state := &models.TournamentState{
		Format:      models.FormatRoundRobin,
		RaceTo:      raceTo,
		PlayerNames: append([]string(nil), players...),
	}
	state.Matches = allPairs(players, "", 0)
	state.CurrentMatchID = nextPlayableMatch(state)
	return state
}

// allPairs generates the n(n-1)/2 unordered pairings once, in seed order.
func allPairs(players []string, stage models.TournamentStage, groupIndex int) []models.TournamentMatch {
	var matches []models.TournamentMatch
	idx := 0
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			p1, p2 := players[i], players[j]
			matches = append(matches, models.TournamentMatch{
				ID:         uuid.NewString(),
				RoundIndex: 0,
				MatchIndex: idx,
				Stage:      stage,
				GroupIndex: groupIndex,
				Player1:    &p1,
				Player2:    &p2,
			})
			idx++
		}
	}
	return matches
}

// buildGroupKnockout snake-seeds the field into balanced groups, runs a
// round robin inside each, and later promotes the top two per group into a
// knockout bracket.
func buildGroupKnockout(players []string, raceTo int) *models.TournamentState {
	groups := groupKnockoutSmallGroups
	if len(players) >= groupKnockoutLargeCutover {
		groups = groupKnockoutLargeGroups
	}
	state := &models.TournamentState{
		Format:      models.FormatGroupKnockout,
		RaceTo:      raceTo,
		PlayerNames: append([]string(nil), players...),
		Stage:       models.StageGroup,
	}
	members := make([][]string, groups)
	for i, name := range players {
		g := i % groups
		if (i/groups)%2 == 1 {
			g = groups - 1 - g // snake
		}
		members[g] = append(members[g], name)
	}
	for g := 0; g < groups; g++ {
		state.Groups = append(state.Groups, models.TournamentGroup{Index: g, Players: members[g]})
		state.Matches = append(state.Matches, allPairs(members[g], models.StageGroup, g)...)
	}
	for i := range state.Matches {
		state.Matches[i].MatchIndex = i
	}
	state.CurrentMatchID = nextPlayableMatch(state)
	return state
}

// --- advancing ---

func advanceTournament(ts *models.TournamentState, decided *models.TournamentMatch) {
	switch {
	case ts.Format == models.FormatRoundRobin:
		if allDecided(ts.Matches) {
			standings := Standings(ts.Matches, ts.PlayerNames)
			ts.Winner = standings[0].Player
		}
	case ts.Format == models.FormatKnockout,
		ts.Format == models.FormatGroupKnockout && ts.Stage == models.StageKnockout:
		advanceKnockoutWinner(ts, decided)
	case ts.Format == models.FormatGroupKnockout:
		if groupStageDone(ts) {
			promoteGroupWinners(ts)
		}
	}
	ts.CurrentMatchID = nextPlayableMatch(ts)
}

// advanceKnockoutWinner moves a decided match's winner into its parent
// bracket slot; the final has no parent and decides the tournament.
func advanceKnockoutWinner(ts *models.TournamentState, m *models.TournamentMatch) {
	parent := findMatch(ts, m.Stage, m.RoundIndex+1, m.MatchIndex/2)
	if parent == nil {
		ts.Winner = m.Winner
		return
	}
	name := m.Winner
	if m.MatchIndex%2 == 0 {
		parent.Player1 = &name
	} else {
		parent.Player2 = &name
	}
}

func findMatch(ts *models.TournamentState, stage models.TournamentStage, round, idx int) *models.TournamentMatch {
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.Stage == stage && m.RoundIndex == round && m.MatchIndex == idx {
			return m
		}
	}
	return nil
}

func allDecided(matches []models.TournamentMatch) bool {
	for i := range matches {
		if matches[i].Winner == "" {
			return false
		}
	}
	return true
}

func groupStageDone(ts *models.TournamentState) bool {
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.Stage == models.StageGroup && m.Winner == "" {
			return false
		}
	}
	return true
}

// promoteGroupWinners seeds winners then runners-up into the knockout
// bracket. With winners ahead of runners-up in the seed list, standard
// bracket order keeps groupmates apart until the later rounds.
func promoteGroupWinners(ts *models.TournamentState) {
	var winners, runnersUp []string
	for _, g := range ts.Groups {
		table := Standings(groupMatches(ts, g.Index), g.Players)
		winners = append(winners, table[0].Player)
		runnersUp = append(runnersUp, table[1].Player)
	}
	seeds := append(append([]string(nil), winners...), runnersUp...)
	first := firstRoundMatches(seeds, models.StageKnockout)
	ts.Matches = append(ts.Matches, knockoutTree(first, models.StageKnockout)...)
	ts.Stage = models.StageKnockout
	resolveByes(ts)
}

func groupMatches(ts *models.TournamentState, groupIndex int) []models.TournamentMatch {
	var out []models.TournamentMatch
	for _, m := range ts.Matches {
		if m.Stage == models.StageGroup && m.GroupIndex == groupIndex {
			out = append(out, m)
		}
	}
	return out
}

// nextPlayableMatch picks the first undecided, fully resolved, non-bye match
// in stage/round/index order.
func nextPlayableMatch(ts *models.TournamentState) string {
	best := -1
	for i := range ts.Matches {
		m := &ts.Matches[i]
		if m.IsBye || !m.Ready() {
			continue
		}
		if best == -1 || matchBefore(&ts.Matches[i], &ts.Matches[best]) {
			best = i
		}
	}
	if best == -1 {
		return ""
	}
	return ts.Matches[best].ID
}

func matchBefore(a, b *models.TournamentMatch) bool {
	if a.Stage != b.Stage {
		return a.Stage == models.StageGroup
	}
	if a.RoundIndex != b.RoundIndex {
		return a.RoundIndex < b.RoundIndex
	}
	return a.MatchIndex < b.MatchIndex
}

// --- standings ---

// Standings computes the round-robin table over the given matches: 2 points
// per win, tie-break by frame differential then frames won, stable on seed
// order for full ties. Deterministic for identical inputs.
func Standings(matches []models.TournamentMatch, players []string) []models.TournamentStanding {
	rows := make([]models.TournamentStanding, len(players))
	index := make(map[string]int, len(players))
	for i, p := range players {
		rows[i] = models.TournamentStanding{Player: p, Seed: i}
		index[p] = i
	}
	for _, m := range matches {
		if m.Player1 == nil || m.Player2 == nil {
			continue
		}
		w1, w2 := m.FrameWins(*m.Player1), m.FrameWins(*m.Player2)
		if i, ok := index[*m.Player1]; ok {
			rows[i].FramesWon += w1
			rows[i].FramesLost += w2
			if m.Winner != "" {
				rows[i].Played++
				if m.Winner == *m.Player1 {
					rows[i].Points += 2
				}
			}
		}
		if i, ok := index[*m.Player2]; ok {
			rows[i].FramesWon += w2
			rows[i].FramesLost += w1
			if m.Winner != "" {
				rows[i].Played++
				if m.Winner == *m.Player2 {
					rows[i].Points += 2
				}
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].FrameDiff() != rows[j].FrameDiff() {
			return rows[i].FrameDiff() > rows[j].FrameDiff()
		}
		if rows[i].FramesWon != rows[j].FramesWon {
			return rows[i].FramesWon > rows[j].FramesWon
		}
		return rows[i].Seed < rows[j].Seed
	})
	return rows
}
