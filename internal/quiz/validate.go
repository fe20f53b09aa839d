package quiz

import (
	"strings"

	"github.com/google/uuid"

	"github.com/leandroblox/open-kahoot/internal/models"
)

const (
	minOptions    = 2
	maxOptions    = 4
	maxNameLength = 30
	defaultTitle  = "Quiz Game"
)

// prepareQuestions validates the questions of a new game and returns normalized copies
func prepareQuestions(questions []models.Question, settings models.GameSettings) ([]models.Question, error) {
	if len(questions) == 0 {
		return nil, invalid("questions", "at least one question is required")
	}
	if settings.ThinkTime <= 0 {
		return nil, invalid("settings.thinkTime", "must be positive, got %d", settings.ThinkTime)
	}
	if settings.AnswerTime <= 0 {
		return nil, invalid("settings.answerTime", "must be positive, got %d", settings.AnswerTime)
	}

	seen := make(map[string]bool, len(questions))
	out := make([]models.Question, 0, len(questions))
	for i, q := range questions {
		q = cloneQuestion(q)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			return nil, invalid("questions", "question %d has duplicate id %q", i+1, q.ID)
		}
		seen[q.ID] = true
		if q.Type == "" {
			q.Type = models.QuestionMultiple
		}
		q.TimeLimit = settings.AnswerTime
		if err := ValidateQuestion(q); err != nil {
			return nil, invalid("questions", "question %d: %v", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// ValidateQuestion checks the option and answer-key constraints of a single question
func ValidateQuestion(q models.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return invalid("question", "text is empty")
	}
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return invalid("options", "need %d to %d options, got %d", minOptions, maxOptions, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return invalid("options", "option %d is empty", i+1)
		}
	}

	switch q.Type {
	case models.QuestionBoolean:
		if len(q.Options) != 2 {
			return invalid("options", "boolean question needs exactly 2 options")
		}
		if len(q.CorrectAnswers) != 1 {
			return invalid("correctAnswers", "boolean question needs exactly one correct answer")
		}
	case models.QuestionSingle:
		if len(q.CorrectAnswers) != 1 {
			return invalid("correctAnswers", "single question needs exactly one correct answer")
		}
	case models.QuestionMultiple:
		if len(q.CorrectAnswers) == 0 {
			return invalid("correctAnswers", "at least one correct answer is required")
		}
	default:
		return invalid("type", "unknown question type %q", q.Type)
	}

	return checkIndices("correctAnswers", q.CorrectAnswers, len(q.Options))
}

// checkIndices rejects out-of-range and repeated option indices
func checkIndices(field string, indices []int, optionCount int) error {
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= optionCount {
			return invalid(field, "index %d out of range", idx)
		}
		if seen[idx] {
			return invalid(field, "index %d repeated", idx)
		}
		seen[idx] = true
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", invalid("name", "must be at most %d characters", maxNameLength)
	}
	return name, nil
}

// normalizeToken accepts a client-chosen persistent id only in canonical UUID
// form. An empty token means the server picks one.
func normalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return "", invalid("persistentId", "must be a UUID")
	}
	return id.String(), nil
}
