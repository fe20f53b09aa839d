package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leandroblox/open-kahoot/internal/models"
)

const (
	defaultThinkTime  = 5
	defaultAnswerTime = 20
)

var durationPattern = regexp.MustCompile(`^(\d+)\s*(seconds?|secs?|s|minutes?|mins?|m)$`)

// Definition is a quiz read from markdown, ready for createGame
type Definition struct {
	Title     string              `json:"title"`
	Settings  models.GameSettings `json:"settings"`
	Questions []models.Question   `json:"questions"`
}

// draftQuestion collects a question while its lines are read
type draftQuestion struct {
	q       models.Question
	answers []string
	typed   bool
}

// ParseQuizMarkdown parses a markdown string into a quiz definition.
//
//	# Title
//	# Settings
//	think_time: 5 seconds
//	answer_time: 20 seconds
//	### Question text
//	- [x] correct option
//	- [ ] wrong option
//	* Type: single
//	* Explanation: shown with the results
//
// Plain "- option" lines may be combined with "* Answer: option".
func ParseQuizMarkdown(markdown string) (*Definition, error) {
	def := &Definition{
		Settings: models.GameSettings{
			ThinkTime:  defaultThinkTime,
			AnswerTime: defaultAnswerTime,
		},
		Questions: []models.Question{},
	}

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // images may be inlined as data urls
	var current *draftQuestion
	var drafts []*draftQuestion
	inSettings := false
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		trimmed := strings.TrimSpace(scanner.Text())

		if trimmed == "" {
			continue
		}

		// Settings section (check BEFORE title to avoid "Settings" being treated as title)
		if trimmed == "# Settings" {
			inSettings = true
			continue
		}

		if strings.HasPrefix(trimmed, "# ") && def.Title == "" && !inSettings {
			def.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			continue
		}

		if inSettings {
			if strings.HasPrefix(trimmed, "#") {
				inSettings = false
			} else if key, value, ok := strings.Cut(trimmed, ":"); ok {
				if err := applySetting(&def.Settings, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				continue
			}
		}

		if strings.HasPrefix(trimmed, "###") {
			current = &draftQuestion{q: models.Question{
				Question: strings.TrimSpace(strings.TrimPrefix(trimmed, "###")),
				Options:  []string{},
			}}
			drafts = append(drafts, current)
			continue
		}

		if current == nil {
			continue
		}

		if strings.HasPrefix(trimmed, "-") {
			text, correct := parseOption(strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
			if correct {
				current.q.CorrectAnswers = append(current.q.CorrectAnswers, len(current.q.Options))
			}
			current.q.Options = append(current.q.Options, text)
			continue
		}

		if strings.HasPrefix(trimmed, "*") {
			key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(trimmed, "*")), ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "answer":
				for _, a := range strings.Split(value, "|") {
					if a = strings.TrimSpace(a); a != "" {
						current.answers = append(current.answers, a)
					}
				}
			case "type":
				t, err := parseType(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				current.q.Type = t
				current.typed = true
			case "explanation":
				current.q.Explanation = value
			case "image":
				current.q.Image = value
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading markdown: %w", err)
	}

	if def.Title == "" {
		return nil, fmt.Errorf("quiz must have a title")
	}

	for i, d := range drafts {
		if d.q.Question == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if len(d.q.Options) == 0 {
			return nil, fmt.Errorf("question %d has no options", i+1)
		}
		if err := resolveAnswers(d); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if len(d.q.CorrectAnswers) == 0 {
			return nil, fmt.Errorf("question %d has no answer", i+1)
		}
		if !d.typed {
			d.q.Type = models.QuestionSingle
			if len(d.q.CorrectAnswers) > 1 {
				d.q.Type = models.QuestionMultiple
			}
		}
		d.q.TimeLimit = def.Settings.AnswerTime
		def.Questions = append(def.Questions, d.q)
	}

	if len(def.Questions) == 0 {
		return nil, fmt.Errorf("quiz must have at least one question")
	}
	return def, nil
}

func applySetting(s *models.GameSettings, key, value string) error {
	switch key {
	case "think_time", "time_between_questions":
		v, err := parseDuration(value)
		if err != nil {
			return err
		}
		s.ThinkTime = v
	case "answer_time", "time_per_question":
		v, err := parseDuration(value)
		if err != nil {
			return err
		}
		s.AnswerTime = v
	}
	return nil
}

// parseOption strips a "[x]" or "[ ]" checkbox and reports whether it was ticked
func parseOption(s string) (string, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "[x]"):
		return strings.TrimSpace(s[3:]), true
	case strings.HasPrefix(lower, "[ ]"):
		return strings.TrimSpace(s[3:]), false
	}
	return s, false
}

// resolveAnswers turns "* Answer:" texts into option indices
func resolveAnswers(d *draftQuestion) error {
	for _, a := range d.answers {
		idx := -1
		for i, opt := range d.q.Options {
			if opt == a {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("answer '%s' not found in options", a)
		}
		if !containsIndex(d.q.CorrectAnswers, idx) {
			d.q.CorrectAnswers = append(d.q.CorrectAnswers, idx)
		}
	}
	return nil
}

func containsIndex(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}

func parseType(s string) (models.QuestionType, error) {
	switch t := models.QuestionType(strings.ToLower(strings.TrimSpace(s))); t {
	case models.QuestionSingle, models.QuestionMultiple, models.QuestionBoolean:
		return t, nil
	}
	return "", fmt.Errorf("unknown question type: %s", s)
}

// parseDuration parses time strings like "10 seconds", "1 minute", "30s", etc.
func parseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if matches := durationPattern.FindStringSubmatch(s); matches != nil {
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, err
		}
		if strings.HasPrefix(matches[2], "m") {
			value *= 60
		}
		if value <= 0 {
			return 0, fmt.Errorf("duration must be positive: %s", s)
		}
		return value, nil
	}

	// Try just a number (assume seconds)
	if value, err := strconv.Atoi(s); err == nil && value > 0 {
		return value, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
