package quiz

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leandroblox/open-kahoot/internal/models"
)

const (
	pinDigits      = 6
	maxPinAttempts = 100
	hostName       = "Host"
)

// SessionInfo is the snapshot a ReclaimPolicy decides on
type SessionInfo struct {
	ID           string
	Pin          string
	Phase        models.Phase
	Connected    int
	LastActivity time.Time
	FinishedAt   time.Time
}

// ReclaimPolicy reports whether a session should be removed from the registry
type ReclaimPolicy func(info SessionInfo, now time.Time) bool

// DefaultReclaimPolicy removes finished games after retention, and live games
// nobody has been connected to for idle. A zero duration disables that rule.
func DefaultReclaimPolicy(idle, retention time.Duration) ReclaimPolicy {
	return func(info SessionInfo, now time.Time) bool {
		if info.Phase == models.PhaseFinished {
			return retention > 0 && now.Sub(info.FinishedAt) >= retention
		}
		return idle > 0 && info.Connected == 0 && now.Sub(info.LastActivity) >= idle
	}
}

// Options configures a Manager. Zero values get sensible defaults.
type Options struct {
	Clock           Clock
	Scoring         ScoringFunc
	Logger          *slog.Logger
	PreparationTime time.Duration
	Reclaim         ReclaimPolicy
}

// Seat is what a client needs to act in a game. PlayerID is public; Token
// is the secret it reconnects with.
type Seat struct {
	GameID   string
	PlayerID string
	Token    string
}

type connRef struct {
	gameID   string
	playerID string
}

// Manager is the session registry. It owns the pin and id namespaces and the
// binding of transport connections to players. Game state itself lives in
// each Session under the session's own lock.
type Manager struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	byPin map[string]*Session
	conns map[string]connRef

	out    Broadcaster
	opts   Options
	newPin func() (string, error)
}

// NewManager creates a new session registry
func NewManager(out Broadcaster, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Scoring == nil {
		opts.Scoring = LinearScoring
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reclaim == nil {
		opts.Reclaim = DefaultReclaimPolicy(30*time.Minute, time.Hour)
	}
	return &Manager{
		byID:   make(map[string]*Session),
		byPin:  make(map[string]*Session),
		conns:  make(map[string]connRef),
		out:    out,
		opts:   opts,
		newPin: generatePin,
	}
}

// CreateGame validates the questions and registers a new game in the lobby.
// The creator becomes the host, bound to hostConnection, and is sent gameCreated.
func (m *Manager) CreateGame(title string, questions []models.Question, settings models.GameSettings, hostConnection string) (Seat, models.Game, error) {
	prepared, err := prepareQuestions(questions, settings)
	if err != nil {
		return Seat{}, models.Game{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}

	now := m.opts.Clock.Now()
	host := &models.Player{
		ID:           uuid.NewString(),
		Token:        uuid.NewString(),
		ConnectionID: hostConnection,
		Name:         hostName,
		IsHost:       true,
		IsConnected:  hostConnection != "",
		JoinedAt:     now,
	}
	game := &models.Game{
		ID:             uuid.NewString(),
		HostID:         host.ID,
		Title:          title,
		Questions:      prepared,
		Settings:       settings,
		Phase:          models.PhaseWaiting,
		PhaseStartTime: now,
		PhaseEndTime:   now,
		Players:        map[string]*models.Player{host.ID: host},
		AnswerHistory:  []models.AnswerRecord{},
		CreatedAt:      now,
	}
	s := &Session{
		game:         game,
		clock:        m.opts.Clock,
		scoring:      m.opts.Scoring,
		out:          m.out,
		logger:       m.opts.Logger,
		prepTime:     m.opts.PreparationTime,
		lastActivity: now,
		onFinish:     m.releasePin,
	}

	s.mu.Lock()
	previous, err := m.register(s, hostConnection)
	if err != nil {
		s.mu.Unlock()
		return Seat{}, models.Game{}, err
	}

	m.opts.Logger.Info("Game created",
		"game_id", game.ID, "pin", game.Pin, "title", title, "questions", len(prepared))

	view := ViewFor(game, RoleHost)
	s.send(host, models.Message{Type: models.MsgGameCreated, Payload: models.GameCreatedPayload{
		Game:         view,
		PlayerID:     host.ID,
		PersistentID: host.Token,
	}})
	s.mu.Unlock()

	if previous != nil {
		m.detach(*previous, hostConnection)
	}
	return Seat{GameID: game.ID, PlayerID: host.ID, Token: host.Token}, view, nil
}

// register assigns a free pin and indexes the session. It returns the
// connection's previous binding, if any.
func (m *Manager) register(s *Session, hostConnection string) (*connRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pin string
	for attempt := 0; ; attempt++ {
		if attempt == maxPinAttempts {
			return nil, fmt.Errorf("failed to allocate a free pin after %d attempts", maxPinAttempts)
		}
		candidate, err := m.newPin()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pin: %w", err)
		}
		if _, taken := m.byPin[candidate]; !taken {
			pin = candidate
			break
		}
	}

	s.game.Pin = pin
	m.byID[s.game.ID] = s
	m.byPin[pin] = s
	return m.bindLocked(hostConnection, connRef{gameID: s.game.ID, playerID: s.game.HostID}), nil
}

// releasePin frees the pin of a finished game. Called with the session locked.
func (m *Manager) releasePin(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byPin[s.game.Pin] == s {
		delete(m.byPin, s.game.Pin)
	}
}

// FindByPin resolves the pin of a game that has not finished
func (m *Manager) FindByPin(pin string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byPin[strings.TrimSpace(pin)]
	if !ok {
		return nil, fmt.Errorf("%w: no active game with pin %s", ErrNotFound, pin)
	}
	return s, nil
}

// FindByID resolves a game by id, finished or not
func (m *Manager) FindByID(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	return s, nil
}

// Len returns the number of registered games
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Remove drops a game from the registry and cancels its timer
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	delete(m.byID, id)
	if m.byPin[s.game.Pin] == s {
		delete(m.byPin, s.game.Pin)
	}
	for conn, ref := range m.conns {
		if ref.gameID == id {
			delete(m.conns, conn)
		}
	}
	m.mu.Unlock()

	s.close()
	m.opts.Logger.Info("Game removed", "game_id", id, "pin", s.game.Pin)
	return nil
}

// Cleanup removes every game the reclaim policy selects and returns how many
func (m *Manager) Cleanup() int {
	now := m.opts.Clock.Now()
	removed := 0
	for _, s := range m.snapshot() {
		s.mu.Lock()
		info := SessionInfo{
			ID:           s.game.ID,
			Pin:          s.game.Pin,
			Phase:        s.game.Phase,
			Connected:    s.connectedCount(),
			LastActivity: s.lastActivity,
			FinishedAt:   s.finishedAt,
		}
		s.mu.Unlock()

		if !m.opts.Reclaim(info, now) {
			continue
		}
		if err := m.Remove(info.ID); err == nil {
			removed++
		}
	}
	if removed > 0 {
		m.opts.Logger.Info("Reclaimed games", "count", removed)
	}
	return removed
}

// Shutdown finishes every live game and cancels all timers
func (m *Manager) Shutdown() {
	for _, s := range m.snapshot() {
		s.mu.Lock()
		if s.game.Phase != models.PhaseFinished {
			s.finish()
		}
		s.stopTimer()
		s.mu.Unlock()
	}
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	return sessions
}

// bindLocked points a connection at a player and returns the binding it replaced
func (m *Manager) bindLocked(connectionID string, ref connRef) *connRef {
	if connectionID == "" {
		return nil
	}
	old, ok := m.conns[connectionID]
	m.conns[connectionID] = ref
	if !ok || old == ref {
		return nil
	}
	return &old
}

func (m *Manager) bind(connectionID string, ref connRef) *connRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindLocked(connectionID, ref)
}

func (m *Manager) unbind(connectionID string) {
	if connectionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connectionID)
}

// detach disconnects the player a connection used to be bound to
func (m *Manager) detach(ref connRef, connectionID string) {
	s, err := m.FindByID(ref.gameID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnect(ref.playerID, connectionID)
}

// Join adds a player to the game with the given pin, or reconnects the
// player holding token. It returns the caller's seat and view.
func (m *Manager) Join(pin, name, token, connectionID string) (Seat, models.Game, error) {
	s, err := m.FindByPin(pin)
	if err != nil {
		return Seat{}, models.Game{}, err
	}

	s.mu.Lock()
	p, err := s.join(name, token, connectionID)
	if err != nil {
		s.mu.Unlock()
		return Seat{}, models.Game{}, err
	}
	seat, view, previous := m.seat(s, p, connectionID)
	s.mu.Unlock()

	if previous != nil {
		m.detach(*previous, connectionID)
	}
	return seat, view, nil
}

// Reconnect binds a new connection to the disconnected player holding token
func (m *Manager) Reconnect(gameID, token, connectionID string) (models.Player, error) {
	var player models.Player
	_, err := m.attach(gameID, token, connectionID, func(s *Session, p *models.Player) error {
		player = publicPlayer(p)
		return nil
	})
	return player, err
}

// ValidateGame confirms that token belongs to the game and returns the view
// of its player. A player whose connection dropped is bound to connectionID;
// one still live on another connection is refused.
func (m *Manager) ValidateGame(gameID, token, connectionID string) (models.Game, error) {
	return m.attach(gameID, token, connectionID, nil)
}

// attach reconnects the player holding token and runs fn with the session
// still locked
func (m *Manager) attach(gameID, token, connectionID string, fn func(s *Session, p *models.Player) error) (models.Game, error) {
	s, err := m.FindByID(gameID)
	if err != nil {
		return models.Game{}, err
	}
	token, err = normalizeToken(token)
	if err != nil {
		return models.Game{}, err
	}

	s.mu.Lock()
	p := s.playerByToken(token)
	if p == nil {
		s.mu.Unlock()
		return models.Game{}, fmt.Errorf("%w: no such player in game %s", ErrNotFound, gameID)
	}
	if err := s.reconnect(p, connectionID); err != nil {
		s.mu.Unlock()
		return models.Game{}, err
	}
	if fn != nil {
		if err := fn(s, p); err != nil {
			s.mu.Unlock()
			return models.Game{}, err
		}
	}
	_, view, previous := m.seat(s, p, connectionID)
	s.mu.Unlock()

	if previous != nil {
		m.detach(*previous, connectionID)
	}
	return view, nil
}

// seat binds the connection to p. Called with the session locked.
func (m *Manager) seat(s *Session, p *models.Player, connectionID string) (Seat, models.Game, *connRef) {
	previous := m.bind(connectionID, connRef{gameID: s.game.ID, playerID: p.ID})
	return Seat{GameID: s.game.ID, PlayerID: p.ID, Token: p.Token}, ViewFor(s.game, roleOf(p)), previous
}

// Disconnect marks the player bound to the connection as offline
func (m *Manager) Disconnect(connectionID string) {
	m.mu.Lock()
	ref, ok := m.conns[connectionID]
	delete(m.conns, connectionID)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.detach(ref, connectionID)
}

// withSession runs fn on the game's serialized command path
func (m *Manager) withSession(gameID string, fn func(s *Session) error) error {
	s, err := m.FindByID(gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// withCaller runs fn for the player bound to connectionID. Commands never
// trust an id from the payload.
func (m *Manager) withCaller(gameID, connectionID string, fn func(s *Session, caller *models.Player) error) error {
	return m.withSession(gameID, func(s *Session) error {
		caller, err := s.member(connectionID)
		if err != nil {
			return err
		}
		return fn(s, caller)
	})
}

// StartGame leaves the lobby
func (m *Manager) StartGame(gameID, connectionID string) error {
	return m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		return s.start(caller.ID)
	})
}

// SubmitAnswer records the caller's answer to the current question
func (m *Manager) SubmitAnswer(gameID, questionID, connectionID string, answerIndices []int) (models.AnswerRecord, error) {
	var record models.AnswerRecord
	err := m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		var err error
		record, err = s.submitAnswer(questionID, caller.ID, answerIndices)
		return err
	})
	return record, err
}

// ShowLeaderboard moves from results to the ranking
func (m *Manager) ShowLeaderboard(gameID, connectionID string) error {
	return m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		return s.showLeaderboard(caller.ID)
	})
}

// NextQuestion advances the game and reports whether it is still running
func (m *Manager) NextQuestion(gameID, connectionID string) (bool, error) {
	var more bool
	err := m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		var err error
		more, err = s.nextQuestion(caller.ID)
		return err
	})
	return more, err
}

// EndGame finishes the game immediately
func (m *Manager) EndGame(gameID, connectionID string) error {
	return m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		return s.end(caller.ID)
	})
}

// ToggleDyslexiaSupport flips a player's reading aid and returns the new value
func (m *Manager) ToggleDyslexiaSupport(gameID, connectionID, playerID string) (bool, error) {
	var enabled bool
	err := m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		var err error
		enabled, err = s.toggleDyslexiaSupport(caller.ID, playerID)
		return err
	})
	return enabled, err
}

// RemovePlayer kicks a player out of the lobby
func (m *Manager) RemovePlayer(gameID, connectionID, playerID string) error {
	return m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		conn, err := s.removePlayer(caller.ID, playerID)
		if err != nil {
			return err
		}
		m.unbind(conn)
		return nil
	})
}

// ExportLog renders the game's answer log. It works in any phase.
func (m *Manager) ExportLog(gameID string) (string, string, error) {
	var data, filename string
	err := m.withSession(gameID, func(s *Session) error {
		var err error
		data, filename, err = s.exportLog()
		return err
	})
	return data, filename, err
}

// ExportLogFor renders the answer log for whoever holds the host's token
func (m *Manager) ExportLogFor(gameID, token string) (string, string, error) {
	var data, filename string
	err := m.withSession(gameID, func(s *Session) error {
		token, err := normalizeToken(token)
		if err != nil {
			return err
		}
		if p := s.playerByToken(token); p == nil || !p.IsHost {
			return fmt.Errorf("%w: only the host can download logs", ErrForbidden)
		}
		data, filename, err = s.exportLog()
		return err
	})
	return data, filename, err
}

// DownloadLogs exports the log for the host and sends it as gameLogs
func (m *Manager) DownloadLogs(gameID, connectionID string) (string, string, error) {
	var data, filename string
	err := m.withCaller(gameID, connectionID, func(s *Session, caller *models.Player) error {
		var err error
		data, filename, err = s.downloadLogs(caller.ID)
		return err
	})
	return data, filename, err
}

// generatePin draws a uniformly random numeric pin
func generatePin() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < pinDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinDigits, n.Int64()), nil
}
