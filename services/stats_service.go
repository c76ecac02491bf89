package services

import (
	"sort"
	"time"

	"chalk-table-service/models"
	"chalk-table-service/store"
	"chalk-table-service/utils"
)

// StatsService answers leaderboard queries. Session numbers come straight
// off the table aggregate; windowed numbers are replayed from history so
// they never mix with session state.
type StatsService struct {
	Store   *store.TableStore
	History HistoryRepo

	Now func() time.Time
}

func NewStatsService(st *store.TableStore, history HistoryRepo) *StatsService {
	return &StatsService{Store: st, History: history, Now: time.Now}
}

var windowSpans = map[string]time.Duration{
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
}

// SessionLeaderboard returns the running session's table in rank order.
func (s *StatsService) SessionLeaderboard(tableID string) (models.SessionStats, error) {
	snap, err := s.Store.Get(tableID)
	if err != nil {
		return models.SessionStats{}, err
	}
	out := models.SessionStats{
		Players: rankPlayers(snap.Table.Session.Players),
		King:    snap.Table.Session.King,
	}
	return out, nil
}

// WindowLeaderboard replays the history records inside the named window
// ("day", "week" or "month") into a fresh leaderboard. Streaks and the
// window king are derived from the replay alone.
func (s *StatsService) WindowLeaderboard(tableID, window string) (models.SessionStats, error) {
	span, ok := windowSpans[window]
	if !ok {
		return models.SessionStats{}, Validationf("unknown window %q", window)
	}
	// ListBetween is exclusive on its upper bound; nudge it so a game that
	// ended this exact instant still counts toward its own window.
	now := s.Now()
	records, err := s.History.ListBetween(tableID, now.Add(-span), now.Add(time.Nanosecond))
	if err != nil {
		return models.SessionStats{}, err
	}
	return replayRecords(records), nil
}

// replayRecords folds game records (oldest first) into per-player counters.
// A win extends the winner's streak, a loss resets the loser's; players not
// in a game are untouched. The window king is the longest streak at or above
// the crowning threshold, earliest crowned on ties.
func replayRecords(records []models.GameRecord) models.SessionStats {
	var stats models.SessionStats
	crownedAt := make(map[string]time.Time)

	for _, rec := range records {
		winners := make(map[string]bool, len(rec.Winners))
		for _, w := range rec.Winners {
			winners[utils.NameKey(w)] = true
		}
		for _, name := range rec.Players {
			p := stats.Player(name, rec.EndedAt)
			p.GamesPlayed++
			if winners[utils.NameKey(name)] {
				p.Wins++
				p.CurrentStreak++
				if p.CurrentStreak > p.BestStreak {
					p.BestStreak = p.CurrentStreak
					crownedAt[name] = rec.EndedAt
				}
			} else {
				p.Losses++
				p.CurrentStreak = 0
			}
		}
	}

	for _, p := range stats.Players {
		if p.BestStreak < kingStreakThreshold {
			continue
		}
		at := crownedAt[p.Name]
		better := stats.King == nil ||
			p.BestStreak > stats.King.ConsecutiveWins ||
			(p.BestStreak == stats.King.ConsecutiveWins && at.Before(stats.King.CrownedAt))
		if better {
			stats.King = &models.KingOfTable{
				PlayerName:      p.Name,
				ConsecutiveWins: p.BestStreak,
				CrownedAt:       at,
			}
		}
	}
	stats.Players = rankPlayers(stats.Players)
	return stats
}

// rankPlayers orders by wins, then win rate, then games played, then first
// appearance, without touching the input slice.
func rankPlayers(players []models.PlayerStats) []models.PlayerStats {
	out := append([]models.PlayerStats(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].WinRate() != out[j].WinRate() {
			return out[i].WinRate() > out[j].WinRate()
		}
		if out[i].GamesPlayed != out[j].GamesPlayed {
			return out[i].GamesPlayed > out[j].GamesPlayed
		}
		return out[i].FirstSeenAt.Before(out[j].FirstSeenAt)
	})
	return out
}

// RecentGames exposes the latest finished games, newest first.
func (s *StatsService) RecentGames(tableID string, limit int) ([]models.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.Store.Get(tableID); err != nil {
		return nil, err
	}
	return s.History.ListRecent(tableID, limit)
}
