package quiz

import "testing"

func TestLinearScoring(t *testing.T) {
	tests := []struct {
		name       string
		responseMs int64
		answerTime int
		correct    bool
		want       int
	}{
		{"instant", 0, 20, true, 1000},
		{"four seconds of twenty", 4000, 20, true, 900},
		{"half way", 10000, 20, true, 750},
		{"deadline", 20000, 20, true, 500},
		{"past deadline is clamped", 25000, 20, true, 500},
		{"negative is clamped", -100, 20, true, 1000},
		{"wrong", 1000, 20, false, 0},
		{"wrong instant", 0, 20, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearScoring(tt.responseMs, tt.answerTime, tt.correct); got != tt.want {
				t.Errorf("LinearScoring(%d, %d, %v) = %d, want %d", tt.responseMs, tt.answerTime, tt.correct, got, tt.want)
			}
		})
	}
}

func TestLinearScoringMonotonic(t *testing.T) {
	prev := LinearScoring(0, 30, true)
	for ms := int64(0); ms <= 30000; ms += 250 {
		got := LinearScoring(ms, 30, true)
		if got > prev {
			t.Fatalf("score rose from %d to %d at %dms", prev, got, ms)
		}
		if got <= 0 {
			t.Fatalf("correct answer scored %d at %dms", got, ms)
		}
		prev = got
	}
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		chosen  []int
		correct []int
		want    bool
	}{
		{[]int{0}, []int{0}, true},
		{[]int{1}, []int{0}, false},
		{[]int{2, 0}, []int{0, 2}, true},
		{[]int{0}, []int{0, 2}, false},
		{[]int{0, 1, 2}, []int{0, 2}, false},
		{nil, []int{0}, false},
	}
	for _, tt := range tests {
		if got := isCorrect(tt.chosen, tt.correct); got != tt.want {
			t.Errorf("isCorrect(%v, %v) = %v, want %v", tt.chosen, tt.correct, got, tt.want)
		}
	}
}

func TestCustomScoring(t *testing.T) {
	clock := newFakeClock()
	flat := func(_ int64, _ int, correct bool) int {
		if correct {
			return 1
		}
		return 0
	}
	m := NewManager(&recorder{}, Options{Clock: clock, Scoring: flat, Logger: discardLogger()})
	game := createGame(t, m)
	join(t, m, game.Pin, "Alice", "", "alice")
	startAnswering(t, m, clock, game)

	record, err := m.SubmitAnswer(game.ID, "q1", "alice", []int{0})
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if record.PointsEarned != 1 {
		t.Errorf("points = %d, want 1 from the custom scorer", record.PointsEarned)
	}
}
