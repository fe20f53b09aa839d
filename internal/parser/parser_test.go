package parser

import (
	"slices"
	"strings"
	"testing"

	"github.com/leandroblox/open-kahoot/internal/models"
)

func TestParseQuizMarkdown(t *testing.T) {
	markdown := `# My Quiz Title

# Settings
think_time: 3 seconds
answer_time: 1 minute


### What is the capital of France?
- Berlin
- Madrid
- Paris
- Rome
* Answer: Paris
* Explanation: Paris has been the capital since 987.

### Which of these are primary colors?
- [x] Red
- [ ] Green
- [x] Blue

### The earth is flat.
- [ ] True
- [x] False
* Type: boolean
* Image: data:image/png;base64,AAAA`

	def, err := ParseQuizMarkdown(markdown)
	if err != nil {
		t.Fatalf("Failed to parse quiz: %v", err)
	}

	if def.Title != "My Quiz Title" {
		t.Errorf("Expected title 'My Quiz Title', got '%s'", def.Title)
	}
	if def.Settings.ThinkTime != 3 || def.Settings.AnswerTime != 60 {
		t.Errorf("Expected settings 3/60, got %+v", def.Settings)
	}
	if len(def.Questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(def.Questions))
	}

	q1 := def.Questions[0]
	if q1.Question != "What is the capital of France?" {
		t.Errorf("Expected question text 'What is the capital of France?', got '%s'", q1.Question)
	}
	if len(q1.Options) != 4 {
		t.Errorf("Expected 4 options, got %d", len(q1.Options))
	}
	if !slices.Equal(q1.CorrectAnswers, []int{2}) || q1.Type != models.QuestionSingle {
		t.Errorf("Expected single answer [2], got %v (%s)", q1.CorrectAnswers, q1.Type)
	}
	if q1.Explanation == "" || q1.TimeLimit != 60 {
		t.Errorf("Unexpected first question: %+v", q1)
	}

	q2 := def.Questions[1]
	if !slices.Equal(q2.Options, []string{"Red", "Green", "Blue"}) {
		t.Errorf("Expected checkbox markers stripped, got %q", q2.Options)
	}
	if !slices.Equal(q2.CorrectAnswers, []int{0, 2}) || q2.Type != models.QuestionMultiple {
		t.Errorf("Expected multiple answer [0 2], got %v (%s)", q2.CorrectAnswers, q2.Type)
	}

	q3 := def.Questions[2]
	if q3.Type != models.QuestionBoolean || !slices.Equal(q3.CorrectAnswers, []int{1}) {
		t.Errorf("Expected boolean with answer [1], got %v (%s)", q3.CorrectAnswers, q3.Type)
	}
	if !strings.HasPrefix(q3.Image, "data:image/png") {
		t.Errorf("Expected image payload, got '%s'", q3.Image)
	}
}

func TestParseQuizMarkdown_Defaults(t *testing.T) {
	def, err := ParseQuizMarkdown(`# Quick

### Pick one
- A
- B
* Answer: A | B`)
	if err != nil {
		t.Fatalf("Failed to parse quiz: %v", err)
	}
	if def.Settings.ThinkTime != defaultThinkTime || def.Settings.AnswerTime != defaultAnswerTime {
		t.Errorf("Expected default settings, got %+v", def.Settings)
	}
	if q := def.Questions[0]; !slices.Equal(q.CorrectAnswers, []int{0, 1}) || q.Type != models.QuestionMultiple {
		t.Errorf("Expected both options correct, got %v (%s)", q.CorrectAnswers, q.Type)
	}
}

func TestParseQuizMarkdown_LegacySettings(t *testing.T) {
	def, err := ParseQuizMarkdown(`# Legacy

# Settings
time_per_question: 15s
time_between_questions: 2s

### Q?
- [x] yes
- [ ] no`)
	if err != nil {
		t.Fatalf("Failed to parse quiz: %v", err)
	}
	if def.Settings.AnswerTime != 15 || def.Settings.ThinkTime != 2 {
		t.Errorf("Expected settings 2/15, got %+v", def.Settings)
	}
}

func TestParseQuizMarkdown_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
	}{
		{"no title", "### Question 1?\n- Option A\n- Option B\n* Answer: Option A"},
		{"no questions", "# My Quiz"},
		{"invalid answer", "# My Quiz\n\n### Question 1?\n- Option A\n- Option B\n* Answer: Option C"},
		{"no answer", "# My Quiz\n\n### Question 1?\n- Option A\n- Option B"},
		{"no options", "# My Quiz\n\n### Question 1?\n* Answer: A"},
		{"unknown type", "# My Quiz\n\n### Q?\n- [x] A\n- B\n* Type: essay"},
		{"bad duration", "# My Quiz\n\n# Settings\nanswer_time: soon\n\n### Q?\n- [x] A\n- B"},
		{"zero duration", "# My Quiz\n\n# Settings\nthink_time: 0\n\n### Q?\n- [x] A\n- B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuizMarkdown(tt.markdown); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		hasError bool
	}{
		{"10 seconds", 10, false},
		{"1 minute", 60, false},
		{"2 minutes", 120, false},
		{"30s", 30, false},
		{"1m", 60, false},
		{"45", 45, false},
		{"invalid", 0, true},
		{"-5", 0, true},
	}

	for _, tt := range tests {
		result, err := parseDuration(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("Expected error for input '%s', got nil", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("For input '%s', expected %d, got %d", tt.input, tt.expected, result)
			}
		}
	}
}
