package draft

import (
	"errors"
	"slices"
	"testing"

	"github.com/leandroblox/open-kahoot/internal/models"
)

func TestNewQuestion(t *testing.T) {
	tests := []struct {
		typ     models.QuestionType
		want    models.QuestionType
		options int
	}{
		{models.QuestionBoolean, models.QuestionBoolean, 2},
		{models.QuestionSingle, models.QuestionSingle, 3},
		{models.QuestionMultiple, models.QuestionMultiple, 4},
		{"", models.QuestionMultiple, 4},
	}
	for _, tt := range tests {
		q := NewQuestion(tt.typ)
		if q.Type != tt.want || len(q.Options) != tt.options {
			t.Errorf("NewQuestion(%q) = type %s with %d options", tt.typ, q.Type, len(q.Options))
		}
		if q.ID == "" || !slices.Equal(q.CorrectAnswers, []int{0}) {
			t.Errorf("NewQuestion(%q) = %+v", tt.typ, q)
		}
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	q := NewQuestion(models.QuestionMultiple)
	out, err := Apply(q, SetOption{Index: 1, Text: "Paris"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if out.Options[1] != "Paris" {
		t.Errorf("option = %q", out.Options[1])
	}
	if q.Options[1] != "" {
		t.Error("Apply mutated its input")
	}
}

func TestSimpleSetters(t *testing.T) {
	q := NewQuestion(models.QuestionSingle)
	var err error
	for _, cmd := range []Command{
		SetQuestionText{Text: "Capital of France?"},
		SetExplanation{Text: "It is Paris."},
		SetImage{Data: "data:image/png;base64,AAAA"},
		SetTimeLimit{Seconds: 15},
	} {
		q, err = Apply(q, cmd)
		if err != nil {
			t.Fatalf("Apply(%T) error = %v", cmd, err)
		}
	}
	if q.Question != "Capital of France?" || q.Explanation != "It is Paris." || q.Image == "" || q.TimeLimit != 15 {
		t.Errorf("question = %+v", q)
	}
	if _, err := Apply(q, SetTimeLimit{Seconds: 0}); err == nil {
		t.Error("expected error for zero time limit")
	}
}

func TestSetOptionOutOfRange(t *testing.T) {
	q := NewQuestion(models.QuestionBoolean)
	if _, err := Apply(q, SetOption{Index: 2, Text: "x"}); !errors.Is(err, ErrIndex) {
		t.Errorf("error = %v, want ErrIndex", err)
	}
}

func TestSetCorrectAnswers(t *testing.T) {
	multi := NewQuestion(models.QuestionMultiple)
	single := NewQuestion(models.QuestionSingle)

	tests := []struct {
		name    string
		q       models.Question
		indices []int
		wantErr bool
	}{
		{"multiple takes several", multi, []int{1, 3}, false},
		{"single takes one", single, []int{2}, false},
		{"single rejects two", single, []int{0, 1}, true},
		{"empty", multi, nil, true},
		{"out of range", single, []int{3}, true},
		{"repeated", multi, []int{1, 1}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(tt.q, SetCorrectAnswers{Indices: tt.indices})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(out.CorrectAnswers, tt.indices) {
				t.Errorf("correct answers = %v, want %v", out.CorrectAnswers, tt.indices)
			}
		})
	}
}

func TestChangeType(t *testing.T) {
	q := NewQuestion(models.QuestionMultiple)
	q.Options = []string{"Red", "Green", "Blue", "Black"}
	q.CorrectAnswers = []int{3}

	boolean, err := Apply(q, ChangeType{Type: models.QuestionBoolean})
	if err != nil {
		t.Fatalf("to boolean error = %v", err)
	}
	if !slices.Equal(boolean.Options, []string{"Red", "Green"}) || !slices.Equal(boolean.CorrectAnswers, []int{1}) {
		t.Errorf("boolean = %v %v", boolean.Options, boolean.CorrectAnswers)
	}

	fresh := NewQuestion(models.QuestionBoolean)
	single, err := Apply(fresh, ChangeType{Type: models.QuestionSingle})
	if err != nil {
		t.Fatalf("to single error = %v", err)
	}
	if !slices.Equal(single.Options, []string{"", "", ""}) {
		t.Errorf("placeholder labels carried over: %q", single.Options)
	}

	multi, err := Apply(single, ChangeType{Type: models.QuestionMultiple})
	if err != nil {
		t.Fatalf("to multiple error = %v", err)
	}
	if len(multi.Options) != 4 || multi.Type != models.QuestionMultiple {
		t.Errorf("multiple = %+v", multi)
	}

	if _, err := Apply(q, ChangeType{Type: "essay"}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestSetOptionCount(t *testing.T) {
	q := NewQuestion(models.QuestionMultiple)
	q.CorrectAnswers = []int{1, 3}

	out, err := Apply(q, SetOptionCount{Count: 2})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out.Options) != 2 || !slices.Equal(out.CorrectAnswers, []int{1}) {
		t.Errorf("shrunk = %v %v", out.Options, out.CorrectAnswers)
	}

	q.CorrectAnswers = []int{3}
	out, _ = Apply(q, SetOptionCount{Count: 3})
	if !slices.Equal(out.CorrectAnswers, []int{0}) {
		t.Errorf("answer key = %v, want [0] once the only correct option is gone", out.CorrectAnswers)
	}

	if _, err := Apply(q, SetOptionCount{Count: 5}); err == nil {
		t.Error("expected error for five options")
	}
	if _, err := Apply(NewQuestion(models.QuestionBoolean), SetOptionCount{Count: 3}); err == nil {
		t.Error("expected error for boolean question")
	}
}

func TestRemoveOption(t *testing.T) {
	q := NewQuestion(models.QuestionMultiple)
	q.Options = []string{"a", "b", "c", "d"}
	q.CorrectAnswers = []int{1, 3}

	out, err := Apply(q, RemoveOption{Index: 1})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !slices.Equal(out.Options, []string{"a", "c", "d"}) || !slices.Equal(out.CorrectAnswers, []int{2}) {
		t.Errorf("removed = %v %v", out.Options, out.CorrectAnswers)
	}

	two := NewQuestion(models.QuestionSingle)
	two.Options = []string{"a", "b"}
	if _, err := Apply(two, RemoveOption{Index: 0}); err == nil {
		t.Error("expected error below two options")
	}
	if _, err := Apply(q, RemoveOption{Index: 9}); !errors.Is(err, ErrIndex) {
		t.Errorf("error = %v, want ErrIndex", err)
	}
}

func TestFinalize(t *testing.T) {
	q := NewQuestion(models.QuestionMultiple)
	q.Options = []string{"a", "  ", "c", ""}
	q.CorrectAnswers = []int{1, 2}

	out := Finalize(q)
	if !slices.Equal(out.Options, []string{"a", "c"}) {
		t.Errorf("options = %q", out.Options)
	}
	if !slices.Equal(out.CorrectAnswers, []int{1}) {
		t.Errorf("correct answers = %v, want [1]", out.CorrectAnswers)
	}
	if len(q.Options) != 4 {
		t.Error("Finalize mutated its input")
	}
}

func TestQuizEditing(t *testing.T) {
	var quiz Quiz
	first := quiz.Insert(0, models.QuestionBoolean)
	second := quiz.Insert(10, models.QuestionSingle)
	quiz.Insert(-3, models.QuestionMultiple)

	if len(quiz.Questions) != 3 || quiz.Questions[1].ID != first.ID || quiz.Questions[2].ID != second.ID {
		t.Fatalf("questions out of order: %+v", quiz.Questions)
	}

	if err := quiz.Update(1, SetQuestionText{Text: "Go is fun"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := quiz.Update(7, SetQuestionText{Text: "x"}); !errors.Is(err, ErrIndex) {
		t.Errorf("Update(7) error = %v, want ErrIndex", err)
	}

	quiz.Move(1, -1)
	if quiz.Questions[0].ID != first.ID {
		t.Error("Move did not swap")
	}
	quiz.Move(0, -1)
	if quiz.Questions[0].ID != first.ID {
		t.Error("Move past the start should be a no-op")
	}

	if err := quiz.Remove(0); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Errorf("questions = %d, want 2", len(quiz.Questions))
	}

	final := quiz.Finalize()
	for _, q := range final {
		for _, opt := range q.Options {
			if opt == "" {
				t.Errorf("blank option survived Finalize in %+v", q)
			}
		}
	}
}
