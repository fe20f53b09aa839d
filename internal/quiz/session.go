package quiz

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// Broadcaster delivers one message to one transport connection.
// Send is called with the session locked and must not block.
type Broadcaster interface {
	Send(connectionID string, msg models.Message)
}

// Session owns one game. Every command, timer firing and connection change
// for the game runs under mu, so they are applied in a single total order.
type Session struct {
	mu       sync.Mutex
	game     *models.Game
	clock    Clock
	scoring  ScoringFunc
	out      Broadcaster
	logger   *slog.Logger
	prepTime time.Duration

	// timerGen is bumped on every transition; a timer only fires if its
	// generation, phase and question index are all still current.
	timer    Timer
	timerGen uint64

	lastActivity time.Time
	finishedAt   time.Time
	onFinish     func(*Session)
}

// ID returns the session id
func (s *Session) ID() string {
	return s.game.ID
}

// Pin returns the join code
func (s *Session) Pin() string {
	return s.game.Pin
}

// Phase returns the current phase
func (s *Session) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase
}

// View returns a copy of the game as the given role may see it
func (s *Session) View(role Role) models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewFor(s.game, role)
}

// HasPendingTimer reports whether a phase timer is scheduled
func (s *Session) HasPendingTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Session) touch() {
	s.lastActivity = s.clock.Now()
}

// schedule arms the single phase timer of the session, replacing any other
func (s *Session) schedule(d time.Duration, fire func()) {
	s.stopTimer()
	gen := s.timerGen
	phase := s.game.Phase
	index := s.game.CurrentQuestionIndex

	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.timerGen || phase != s.game.Phase || index != s.game.CurrentQuestionIndex {
			s.logger.Debug("Ignoring stale phase timer",
				"game_id", s.game.ID, "scheduled_phase", phase, "phase", s.game.Phase,
				"scheduled_question", index, "question", s.game.CurrentQuestionIndex)
			return
		}
		s.timer = nil
		fire()
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// setPhase is the only place the phase changes. It always invalidates the pending timer.
func (s *Session) setPhase(phase models.Phase, d time.Duration) {
	s.stopTimer()
	now := s.clock.Now()
	s.game.Phase = phase
	s.game.PhaseStartTime = now
	s.game.PhaseEndTime = now.Add(d)
	s.logger.Info("Phase changed",
		"game_id", s.game.ID, "pin", s.game.Pin, "phase", phase, "question", s.game.CurrentQuestionIndex)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// start moves the game out of the lobby
func (s *Session) start(playerID string) error {
	if _, err := s.requireHost(playerID); err != nil {
		return err
	}
	if s.game.Phase != models.PhaseWaiting {
		return fmt.Errorf("%w: game already started", ErrPhase)
	}
	s.touch()

	s.setPhase(models.PhasePreparation, s.prepTime)
	s.broadcast(func(p *models.Player) models.Message {
		return models.Message{Type: models.MsgGameStarted, Payload: ViewFor(s.game, roleOf(p))}
	})

	if s.prepTime <= 0 {
		s.beginQuestion()
		return nil
	}
	s.schedule(s.prepTime, s.beginQuestion)
	return nil
}

// beginQuestion enters the thinking phase of the current question
func (s *Session) beginQuestion() {
	think := s.game.Settings.ThinkTime
	s.setPhase(models.PhaseThinking, seconds(think))
	for _, p := range s.game.Players {
		p.CurrentAnswer = nil
	}

	q := *s.game.CurrentQuestion()
	s.broadcast(func(p *models.Player) models.Message {
		return models.Message{Type: models.MsgThinkingPhase, Payload: models.ThinkingPhasePayload{
			Question:       QuestionFor(q, roleOf(p), models.PhaseThinking),
			QuestionIndex:  s.game.CurrentQuestionIndex,
			TotalQuestions: len(s.game.Questions),
			ThinkTime:      think,
		}}
	})
	s.schedule(seconds(think), s.openAnswers)
}

// openAnswers enters the answering phase
func (s *Session) openAnswers() {
	answer := s.game.Settings.AnswerTime
	s.setPhase(models.PhaseAnswering, seconds(answer))
	s.broadcastAll(models.Message{Type: models.MsgAnsweringPhase, Payload: models.AnsweringPhasePayload{AnswerTime: answer}})
	s.schedule(seconds(answer), s.closeAnswers)
}

// closeAnswers scores non-responders and reveals the results of the current question
func (s *Session) closeAnswers() {
	s.setPhase(models.PhaseResults, 0)

	index := s.game.CurrentQuestionIndex
	q := s.game.CurrentQuestion()
	for _, p := range sortedPlayers(s.game) {
		if p.IsHost || s.game.HasAnswered(p.ID, index) {
			continue
		}
		s.game.AnswerHistory = append(s.game.AnswerHistory, models.AnswerRecord{
			PlayerID:           p.ID,
			PlayerName:         p.Name,
			QuestionIndex:      index,
			QuestionID:         q.ID,
			AnswerIndices:      nil,
			ResponseTimeMs:     int64(s.game.Settings.AnswerTime) * 1000,
			PointsEarned:       0,
			WasCorrect:         false,
			HasDyslexiaSupport: p.HasDyslexiaSupport,
		})
	}

	stats := Stats(s.game)
	for _, p := range sortedPlayers(s.game) {
		if !p.IsConnected {
			continue
		}
		if p.IsHost {
			s.send(p, models.Message{Type: models.MsgHostResults, Payload: stats})
			continue
		}
		s.send(p, models.Message{Type: models.MsgQuestionEnded, Payload: stats})
		s.send(p, models.Message{Type: models.MsgPersonalResult, Payload: PersonalResultFor(s.game, p.ID)})
	}
}

// showLeaderboard moves from results to the ranking
func (s *Session) showLeaderboard(playerID string) error {
	if _, err := s.requireHost(playerID); err != nil {
		return err
	}
	if s.game.Phase != models.PhaseResults {
		return fmt.Errorf("%w: leaderboard is only available after results", ErrPhase)
	}
	s.touch()

	s.setPhase(models.PhaseLeaderboard, 0)
	s.broadcastAll(models.Message{Type: models.MsgLeaderboardShown, Payload: models.LeaderboardPayload{
		Leaderboard: Leaderboard(s.game),
	}})
	return nil
}

// nextQuestion advances to the next question or finishes on the last one.
// It reports whether another question was started.
func (s *Session) nextQuestion(playerID string) (bool, error) {
	if _, err := s.requireHost(playerID); err != nil {
		return false, err
	}
	if s.game.Phase != models.PhaseLeaderboard {
		return false, fmt.Errorf("%w: next question is only available from the leaderboard", ErrPhase)
	}
	s.touch()

	if s.game.IsLastQuestion() {
		s.finish()
		return false, nil
	}
	s.game.CurrentQuestionIndex++
	s.beginQuestion()
	return true, nil
}

// end finishes the game from any live phase
func (s *Session) end(playerID string) error {
	if _, err := s.requireHost(playerID); err != nil {
		return err
	}
	if s.game.Phase == models.PhaseFinished {
		return fmt.Errorf("%w: game already finished", ErrPhase)
	}
	s.touch()
	s.finish()
	return nil
}

func (s *Session) finish() {
	s.setPhase(models.PhaseFinished, 0)
	s.finishedAt = s.game.PhaseStartTime
	s.broadcastAll(models.Message{Type: models.MsgGameFinished, Payload: models.LeaderboardPayload{
		Leaderboard: Leaderboard(s.game),
	}})
	if s.onFinish != nil {
		s.onFinish(s)
	}
}

// close cancels the pending timer without notifying anyone
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
}

// requireHost resolves the caller and checks it is the host
func (s *Session) requireHost(playerID string) (*models.Player, error) {
	p, ok := s.game.Players[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if !p.IsHost {
		return nil, fmt.Errorf("%w: only the host can do this", ErrForbidden)
	}
	return p, nil
}

func roleOf(p *models.Player) Role {
	if p.IsHost {
		return RoleHost
	}
	return RolePlayer
}

func (s *Session) send(p *models.Player, msg models.Message) {
	if s.out == nil || !p.IsConnected || p.ConnectionID == "" {
		return
	}
	s.out.Send(p.ConnectionID, msg)
}

// broadcast sends each connected member a message built for it
func (s *Session) broadcast(build func(p *models.Player) models.Message) {
	for _, p := range sortedPlayers(s.game) {
		if p.IsConnected {
			s.send(p, build(p))
		}
	}
}

func (s *Session) broadcastAll(msg models.Message) {
	s.broadcast(func(*models.Player) models.Message { return msg })
}

// broadcastExcept sends msg to every connected member but one
func (s *Session) broadcastExcept(playerID string, msg models.Message) {
	for _, p := range sortedPlayers(s.game) {
		if p.ID != playerID && p.IsConnected {
			s.send(p, msg)
		}
	}
}
