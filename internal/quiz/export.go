package quiz

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/leandroblox/open-kahoot/internal/models"
)

var logHeader = []string{
	"Question #",
	"Question",
	"Player",
	"Answer",
	"Correct",
	"Response Time (ms)",
	"Points",
	"Dyslexia Support",
}

// ExportLog renders the answer history as tab separated text, one row per
// record ordered by question index then player id. It also returns the
// suggested download filename.
func ExportLog(g *models.Game, at time.Time) (string, string, error) {
	records := slices.Clone(g.AnswerHistory)
	slices.SortStableFunc(records, func(a, b models.AnswerRecord) int {
		if c := cmp.Compare(a.QuestionIndex, b.QuestionIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = '\t'

	if err := w.Write(logHeader); err != nil {
		return "", "", fmt.Errorf("failed to write log header: %w", err)
	}
	for _, r := range records {
		var q models.Question
		if r.QuestionIndex >= 0 && r.QuestionIndex < len(g.Questions) {
			q = g.Questions[r.QuestionIndex]
		}
		row := []string{
			strconv.Itoa(r.QuestionIndex + 1),
			q.Question,
			playerName(g, r),
			chosenOptions(q, r.AnswerIndices),
			yesNo(r.WasCorrect),
			strconv.FormatInt(r.ResponseTimeMs, 10),
			strconv.Itoa(r.PointsEarned),
			yesNo(r.HasDyslexiaSupport),
		}
		if err := w.Write(row); err != nil {
			return "", "", fmt.Errorf("failed to write log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("failed to flush log: %w", err)
	}

	filename := fmt.Sprintf("quiz-%s-%s.tsv", g.Pin, at.Format("20060102150405"))
	return sb.String(), filename, nil
}

func playerName(g *models.Game, r models.AnswerRecord) string {
	if r.PlayerName != "" {
		return r.PlayerName
	}
	if p, ok := g.Players[r.PlayerID]; ok {
		return p.Name
	}
	return r.PlayerID
}

// chosenOptions resolves indices to option text; no answer renders empty
func chosenOptions(q models.Question, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(q.Options) {
			parts = append(parts, q.Options[idx])
		}
	}
	return strings.Join(parts, " | ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// exportLog is the serialized form of ExportLog for one session
func (s *Session) exportLog() (string, string, error) {
	return ExportLog(s.game, s.clock.Now())
}

// downloadLogs sends the export to the host's connection
func (s *Session) downloadLogs(playerID string) (string, string, error) {
	host, err := s.requireHost(playerID)
	if err != nil {
		return "", "", err
	}
	data, filename, err := s.exportLog()
	if err != nil {
		return "", "", err
	}
	s.send(host, models.Message{Type: models.MsgGameLogs, Payload: models.GameLogsPayload{
		Data:     data,
		Filename: filename,
	}})
	return data, filename, nil
}
