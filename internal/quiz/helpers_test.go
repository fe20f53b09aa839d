package quiz

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// fakeClock is a manual clock; timers only fire from Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, firing due timers in order outside the clock lock
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

// fireStale runs every timer callback that was stopped, as a late firing would
func (c *fakeClock) fireStale() {
	c.mu.Lock()
	var stale []*fakeTimer
	for _, t := range c.timers {
		if t.stopped && !t.fired {
			t.fired = true
			stale = append(stale, t)
		}
	}
	c.mu.Unlock()
	for _, t := range stale {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type sentMessage struct {
	conn string
	msg  models.Message
}

// recorder is a Broadcaster that keeps everything it is given
type recorder struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recorder) Send(connectionID string, msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{conn: connectionID, msg: msg})
}

func (r *recorder) to(conn string, typ models.MessageType) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, s := range r.sent {
		if s.conn == conn && s.msg.Type == typ {
			out = append(out, s.msg)
		}
	}
	return out
}

func (r *recorder) last(conn string, typ models.MessageType) (models.Message, bool) {
	msgs := r.to(conn, typ)
	if len(msgs) == 0 {
		return models.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, *recorder) {
	t.Helper()
	clock := newFakeClock()
	rec := &recorder{}
	m := NewManager(rec, Options{
		Clock:   clock,
		Logger:  discardLogger(),
		Reclaim: DefaultReclaimPolicy(10*time.Minute, time.Hour),
	})
	return m, clock, rec
}

func booleanQuestion(id string) models.Question {
	return models.Question{
		ID:             id,
		Question:       "Is Go statically typed?",
		Options:        []string{"True", "False"},
		CorrectAnswers: []int{0},
		Type:           models.QuestionBoolean,
		Explanation:    "Types are checked at compile time.",
	}
}

func multipleQuestion(id string) models.Question {
	return models.Question{
		ID:             id,
		Question:       "Which are Go keywords?",
		Options:        []string{"defer", "yield", "select", "async"},
		CorrectAnswers: []int{0, 2},
		Type:           models.QuestionMultiple,
	}
}

var defaultSettings = models.GameSettings{ThinkTime: 5, AnswerTime: 20}

// createGame registers a game hosted on the "host" connection and returns it
func createGame(t *testing.T, m *Manager, questions ...models.Question) models.Game {
	t.Helper()
	return createGameOn(t, m, "host", questions...)
}

func createGameOn(t *testing.T, m *Manager, hostConn string, questions ...models.Question) models.Game {
	t.Helper()
	game, _ := createHosted(t, m, hostConn, questions...)
	return game
}

// createHosted creates a game and returns the host's seat with it
func createHosted(t *testing.T, m *Manager, hostConn string, questions ...models.Question) (models.Game, Seat) {
	t.Helper()
	if len(questions) == 0 {
		questions = []models.Question{booleanQuestion("q1")}
	}
	seat, game, err := m.CreateGame("Test Quiz", questions, defaultSettings, hostConn)
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	return game, seat
}

// join returns the new player's public id
func join(t *testing.T, m *Manager, pin, name, token, conn string) string {
	t.Helper()
	return joinSeat(t, m, pin, name, token, conn).PlayerID
}

func joinSeat(t *testing.T, m *Manager, pin, name, token, conn string) Seat {
	t.Helper()
	seat, _, err := m.Join(pin, name, token, conn)
	if err != nil {
		t.Fatalf("Join(%q) error = %v", name, err)
	}
	return seat
}

func phaseOf(t *testing.T, m *Manager, gameID string) models.Phase {
	t.Helper()
	s, err := m.FindByID(gameID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	return s.Phase()
}

func hostView(t *testing.T, m *Manager, game models.Game) models.Game {
	t.Helper()
	s, err := m.FindByID(game.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	return s.View(RoleHost)
}

// startAnswering starts the game from the "host" connection and waits out
// the thinking phase
func startAnswering(t *testing.T, m *Manager, clock *fakeClock, game models.Game) {
	t.Helper()
	if err := m.StartGame(game.ID, "host"); err != nil {
		t.Fatalf("StartGame() error = %v", err)
	}
	clock.Advance(time.Duration(game.Settings.ThinkTime) * time.Second)
	if got := phaseOf(t, m, game.ID); got != models.PhaseAnswering {
		t.Fatalf("phase = %s, want answering", got)
	}
}
