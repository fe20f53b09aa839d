package quiz

import (
	"fmt"
	"slices"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// submitAnswer records a player's answer to the current question
func (s *Session) submitAnswer(questionID, playerID string, indices []int) (models.AnswerRecord, error) {
	p, ok := s.game.Players[playerID]
	if !ok {
		return models.AnswerRecord{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.IsHost {
		return models.AnswerRecord{}, fmt.Errorf("%w: the host does not answer", ErrForbidden)
	}

	q := s.game.CurrentQuestion()
	if q == nil || q.ID != questionID {
		return models.AnswerRecord{}, fmt.Errorf("%w: %s", ErrStaleQuestion, questionID)
	}
	if s.game.Phase != models.PhaseAnswering {
		return models.AnswerRecord{}, fmt.Errorf("%w: answers are not being accepted", ErrPhase)
	}
	index := s.game.CurrentQuestionIndex
	if s.game.HasAnswered(playerID, index) {
		return models.AnswerRecord{}, ErrDuplicateAnswer
	}
	if err := validateAnswer(*q, indices); err != nil {
		return models.AnswerRecord{}, err
	}
	s.touch()

	now := s.clock.Now()
	answerTime := s.game.Settings.AnswerTime
	responseMs := clampResponse(now.Sub(s.game.PhaseStartTime).Milliseconds(), answerTime)
	correct := isCorrect(indices, q.CorrectAnswers)
	points := max(s.scoring(responseMs, answerTime, correct), 0)

	record := models.AnswerRecord{
		PlayerID:           p.ID,
		PlayerName:         p.Name,
		QuestionIndex:      index,
		QuestionID:         q.ID,
		AnswerIndices:      slices.Clone(indices),
		ResponseTimeMs:     responseMs,
		PointsEarned:       points,
		WasCorrect:         correct,
		HasDyslexiaSupport: p.HasDyslexiaSupport,
	}
	s.game.AnswerHistory = append(s.game.AnswerHistory, record)
	p.Score += points
	p.CurrentAnswer = slices.Clone(indices)

	s.logger.Info("Answer recorded",
		"game_id", s.game.ID, "player_id", p.ID, "question", index,
		"correct", correct, "points", points, "response_ms", responseMs)

	answered, total := s.answerCount()
	s.broadcastAll(models.Message{Type: models.MsgPlayerAnswered, Payload: models.PlayerAnsweredPayload{
		PlayerID:      p.ID,
		AnsweredCount: answered,
		TotalPlayers:  total,
	}})

	if s.allAnswered() {
		s.closeAnswers()
	}
	return record, nil
}

func validateAnswer(q models.Question, indices []int) error {
	if len(indices) == 0 {
		return invalid("answerIndices", "at least one option must be chosen")
	}
	if q.Type != models.QuestionMultiple && len(indices) > 1 {
		return invalid("answerIndices", "%s question takes a single option", q.Type)
	}
	return checkIndices("answerIndices", indices, len(q.Options))
}

// answerCount returns how many players answered the current question out of
// those still in it: connected players plus anyone who answered before
// dropping. answered never exceeds total.
func (s *Session) answerCount() (int, int) {
	index := s.game.CurrentQuestionIndex
	answered, total := 0, 0
	for _, p := range s.game.Players {
		if p.IsHost {
			continue
		}
		done := s.game.HasAnswered(p.ID, index)
		if done {
			answered++
		}
		if done || p.IsConnected {
			total++
		}
	}
	return answered, total
}

// allAnswered reports whether every connected player answered the current question.
// With nobody connected the answer timer decides.
func (s *Session) allAnswered() bool {
	if s.game.Phase != models.PhaseAnswering {
		return false
	}
	index := s.game.CurrentQuestionIndex
	connected := 0
	for _, p := range s.game.Players {
		if p.IsHost || !p.IsConnected {
			continue
		}
		connected++
		if !s.game.HasAnswered(p.ID, index) {
			return false
		}
	}
	return connected > 0
}
