package quiz

import (
	"cmp"
	"math"
	"slices"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// sortedPlayers returns the members in join order so fan-out is deterministic
func sortedPlayers(g *models.Game) []*models.Player {
	players := make([]*models.Player, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b *models.Player) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return players
}

// Leaderboard ranks the non-host players by score, ties broken by name then id
func Leaderboard(g *models.Game) []models.LeaderboardEntry {
	players := make([]*models.Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.IsHost {
			players = append(players, p)
		}
	}
	slices.SortFunc(players, func(a, b *models.Player) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	entries := make([]models.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, models.LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    p.ID,
			Name:        p.Name,
			Score:       p.Score,
			IsConnected: p.IsConnected,
		})
	}
	return entries
}

// Stats aggregates the answer history of the current question only
func Stats(g *models.Game) models.GameStats {
	q := g.CurrentQuestion()
	if q == nil {
		return models.GameStats{}
	}
	index := g.CurrentQuestionIndex

	counts := make([]int, len(q.Options))
	total, correct := 0, 0
	for _, r := range g.AnswerHistory {
		if r.QuestionIndex != index {
			continue
		}
		total++
		if r.WasCorrect {
			correct++
		}
		for _, idx := range r.AnswerIndices {
			if idx >= 0 && idx < len(counts) {
				counts[idx]++
			}
		}
	}

	answers := make([]models.OptionStat, len(counts))
	for i, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(c)/float64(total)*1000) / 10
		}
		answers[i] = models.OptionStat{OptionIndex: i, Count: c, Percentage: pct}
	}

	return models.GameStats{
		Question:       cloneQuestion(*q),
		Answers:        answers,
		CorrectAnswers: correct,
		TotalPlayers:   total,
	}
}

// PersonalResultFor summarizes the current question for one player
func PersonalResultFor(g *models.Game, playerID string) models.PersonalResult {
	result := models.PersonalResult{}
	if q := g.CurrentQuestion(); q != nil {
		result.Explanation = q.Explanation
	}
	if r, ok := g.Record(playerID, g.CurrentQuestionIndex); ok {
		result.WasCorrect = r.WasCorrect
		result.PointsEarned = r.PointsEarned
	}

	board := Leaderboard(g)
	for i, e := range board {
		if e.PlayerID != playerID {
			continue
		}
		result.TotalScore = e.Score
		result.Position = e.Rank
		if i > 0 {
			ahead := board[i-1]
			name := ahead.Name
			result.PointsBehind = ahead.Score - e.Score
			result.NextPlayerName = &name
		}
		break
	}
	return result
}
