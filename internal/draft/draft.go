// Package draft edits questions before a game is created. Every change is
// a typed command that touches exactly one aspect of a question.
package draft

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/leandroblox/open-kahoot/internal/models"
)

const (
	maxOptions       = 4
	minOptions       = 2
	defaultTimeLimit = 30
	trueLabel        = "True"
	falseLabel       = "False"
)

// ErrIndex is returned when a command addresses a question or option that does not exist
var ErrIndex = errors.New("index out of range")

// Command is one well-typed mutation of a question
type Command interface {
	apply(q *models.Question) error
}

// SetQuestionText replaces the question text
type SetQuestionText struct{ Text string }

// SetExplanation replaces the explanation shown with the results
type SetExplanation struct{ Text string }

// SetImage replaces the attached image payload
type SetImage struct{ Data string }

// SetTimeLimit replaces the per-question time limit in seconds
type SetTimeLimit struct{ Seconds int }

// SetOption replaces the text of one option
type SetOption struct {
	Index int
	Text  string
}

// SetCorrectAnswers replaces the answer key
type SetCorrectAnswers struct{ Indices []int }

// ChangeType converts the question to another type, reshaping its options
type ChangeType struct{ Type models.QuestionType }

// SetOptionCount grows or shrinks the option list
type SetOptionCount struct{ Count int }

// RemoveOption deletes one option and shifts the answer key
type RemoveOption struct{ Index int }

func (c SetQuestionText) apply(q *models.Question) error {
	q.Question = c.Text
	return nil
}

func (c SetExplanation) apply(q *models.Question) error {
	q.Explanation = c.Text
	return nil
}

func (c SetImage) apply(q *models.Question) error {
	q.Image = c.Data
	return nil
}

func (c SetTimeLimit) apply(q *models.Question) error {
	if c.Seconds <= 0 {
		return fmt.Errorf("time limit must be positive, got %d", c.Seconds)
	}
	q.TimeLimit = c.Seconds
	return nil
}

func (c SetOption) apply(q *models.Question) error {
	if c.Index < 0 || c.Index >= len(q.Options) {
		return fmt.Errorf("%w: option %d", ErrIndex, c.Index)
	}
	q.Options[c.Index] = c.Text
	return nil
}

func (c SetCorrectAnswers) apply(q *models.Question) error {
	if len(c.Indices) == 0 {
		return errors.New("at least one correct answer is required")
	}
	if typeOf(*q) != models.QuestionMultiple && len(c.Indices) > 1 {
		return fmt.Errorf("%s question takes a single correct answer", typeOf(*q))
	}
	seen := make(map[int]bool, len(c.Indices))
	for _, idx := range c.Indices {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("%w: option %d", ErrIndex, idx)
		}
		if seen[idx] {
			return fmt.Errorf("option %d repeated", idx)
		}
		seen[idx] = true
	}
	q.CorrectAnswers = slices.Clone(c.Indices)
	return nil
}

func (c ChangeType) apply(q *models.Question) error {
	current := typeOf(*q)
	switch c.Type {
	case models.QuestionSingle, models.QuestionMultiple, models.QuestionBoolean:
	default:
		return fmt.Errorf("unknown question type %q", c.Type)
	}
	if current == c.Type {
		q.Type = c.Type
		return nil
	}

	first := 0
	if len(q.CorrectAnswers) > 0 {
		first = q.CorrectAnswers[0]
	}

	if c.Type == models.QuestionBoolean {
		q.Options = []string{
			optionOr(q.Options, 0, trueLabel),
			optionOr(q.Options, 1, falseLabel),
		}
		q.CorrectAnswers = []int{min(first, 1)}
		q.Type = c.Type
		return nil
	}

	options := slices.Clone(q.Options)
	if current == models.QuestionBoolean {
		// Placeholder labels do not carry over to a free-form question
		options = []string{
			keepUnless(optionOr(q.Options, 0, ""), trueLabel),
			keepUnless(optionOr(q.Options, 1, ""), falseLabel),
		}
	}
	for len(options) < 3 {
		options = append(options, "")
	}
	if c.Type == models.QuestionMultiple {
		for len(options) < maxOptions {
			options = append(options, "")
		}
		options = options[:maxOptions]
	}

	q.Type = c.Type
	q.Options = options
	q.CorrectAnswers = []int{min(first, len(options)-1)}
	return nil
}

func (c SetOptionCount) apply(q *models.Question) error {
	if typeOf(*q) == models.QuestionBoolean {
		return errors.New("boolean questions always have two options")
	}
	if c.Count < minOptions || c.Count > maxOptions {
		return fmt.Errorf("option count must be between %d and %d, got %d", minOptions, maxOptions, c.Count)
	}
	for len(q.Options) < c.Count {
		q.Options = append(q.Options, "")
	}
	q.Options = q.Options[:c.Count]

	kept := q.CorrectAnswers[:0]
	for _, idx := range q.CorrectAnswers {
		if idx < c.Count {
			kept = append(kept, idx)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, 0)
	}
	q.CorrectAnswers = kept
	return nil
}

func (c RemoveOption) apply(q *models.Question) error {
	if typeOf(*q) == models.QuestionBoolean {
		return errors.New("boolean questions always have two options")
	}
	if c.Index < 0 || c.Index >= len(q.Options) {
		return fmt.Errorf("%w: option %d", ErrIndex, c.Index)
	}
	if len(q.Options) <= minOptions {
		return fmt.Errorf("a question needs at least %d options", minOptions)
	}
	q.Options = slices.Delete(q.Options, c.Index, c.Index+1)

	shifted := make([]int, 0, len(q.CorrectAnswers))
	for _, idx := range q.CorrectAnswers {
		switch {
		case idx == c.Index:
		case idx > c.Index:
			shifted = append(shifted, idx-1)
		default:
			shifted = append(shifted, idx)
		}
	}
	if len(shifted) == 0 {
		shifted = []int{0}
	}
	q.CorrectAnswers = shifted
	return nil
}

// Apply returns a copy of q with cmd applied. q itself is never modified.
func Apply(q models.Question, cmd Command) (models.Question, error) {
	out := clone(q)
	if err := cmd.apply(&out); err != nil {
		return q, err
	}
	return out, nil
}

// NewQuestion returns an empty question of the given type
func NewQuestion(t models.QuestionType) models.Question {
	q := models.Question{
		ID:             uuid.NewString(),
		CorrectAnswers: []int{0},
		TimeLimit:      defaultTimeLimit,
		Type:           t,
	}
	switch t {
	case models.QuestionBoolean:
		q.Options = []string{trueLabel, falseLabel}
	case models.QuestionSingle:
		q.Options = make([]string, 3)
	default:
		q.Type = models.QuestionMultiple
		q.Options = make([]string, maxOptions)
	}
	return q
}

// Finalize drops blank options and remaps the answer key onto what is left
func Finalize(q models.Question) models.Question {
	out := clone(q)
	remap := make(map[int]int, len(q.Options))
	out.Options = out.Options[:0]
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		remap[i] = len(out.Options)
		out.Options = append(out.Options, opt)
	}

	out.CorrectAnswers = nil
	for _, idx := range q.CorrectAnswers {
		if n, ok := remap[idx]; ok {
			out.CorrectAnswers = append(out.CorrectAnswers, n)
		}
	}
	return out
}

// Quiz is an ordered list of questions being authored
type Quiz struct {
	Questions []models.Question
}

// Insert adds a new question of type t at index, clamped to the list bounds
func (d *Quiz) Insert(index int, t models.QuestionType) models.Question {
	index = min(max(index, 0), len(d.Questions))
	q := NewQuestion(t)
	d.Questions = slices.Insert(d.Questions, index, q)
	return q
}

// Update applies cmd to the question at index
func (d *Quiz) Update(index int, cmd Command) error {
	if index < 0 || index >= len(d.Questions) {
		return fmt.Errorf("%w: question %d", ErrIndex, index)
	}
	q, err := Apply(d.Questions[index], cmd)
	if err != nil {
		return fmt.Errorf("question %d: %w", index+1, err)
	}
	d.Questions[index] = q
	return nil
}

// Remove deletes the question at index
func (d *Quiz) Remove(index int) error {
	if index < 0 || index >= len(d.Questions) {
		return fmt.Errorf("%w: question %d", ErrIndex, index)
	}
	d.Questions = slices.Delete(d.Questions, index, index+1)
	return nil
}

// Move swaps the question at index with its neighbour. Moving past either end is a no-op.
func (d *Quiz) Move(index, delta int) {
	target := index + delta
	if index < 0 || index >= len(d.Questions) || target < 0 || target >= len(d.Questions) {
		return
	}
	d.Questions[index], d.Questions[target] = d.Questions[target], d.Questions[index]
}

// Finalize returns every question with blank options dropped
func (d *Quiz) Finalize() []models.Question {
	out := make([]models.Question, len(d.Questions))
	for i, q := range d.Questions {
		out[i] = Finalize(q)
	}
	return out
}

func typeOf(q models.Question) models.QuestionType {
	if q.Type == "" {
		return models.QuestionMultiple
	}
	return q.Type
}

func optionOr(options []string, i int, fallback string) string {
	if i < len(options) && options[i] != "" {
		return options[i]
	}
	return fallback
}

func keepUnless(s, placeholder string) string {
	if s == placeholder {
		return ""
	}
	return s
}

func clone(q models.Question) models.Question {
	q.Options = slices.Clone(q.Options)
	q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
	return q
}
