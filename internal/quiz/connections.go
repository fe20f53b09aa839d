package quiz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// join adds a player to the lobby, or reconnects the player holding token.
// It returns the joined player.
func (s *Session) join(name, token, connectionID string) (*models.Player, error) {
	if s.game.Phase == models.PhaseFinished {
		return nil, fmt.Errorf("%w: game %s has finished", ErrNotFound, s.game.ID)
	}
	token, err := normalizeToken(token)
	if err != nil {
		return nil, err
	}

	if p := s.playerByToken(token); p != nil {
		if err := s.reconnect(p, connectionID); err != nil {
			return nil, err
		}
		return p, nil
	}

	if s.game.Phase != models.PhaseWaiting {
		return nil, fmt.Errorf("%w: game already started", ErrPhase)
	}
	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}
	s.touch()

	if token == "" {
		token = uuid.NewString()
	}
	p := &models.Player{
		ID:           uuid.NewString(),
		Token:        token,
		ConnectionID: connectionID,
		Name:         name,
		IsConnected:  connectionID != "",
		JoinedAt:     s.clock.Now(),
	}
	s.game.Players[p.ID] = p

	s.logger.Info("Player joined", "game_id", s.game.ID, "pin", s.game.Pin, "player_id", p.ID, "name", name)

	s.send(p, models.Message{Type: models.MsgGameJoined, Payload: models.GameJoinedPayload{
		Game:         ViewFor(s.game, RolePlayer),
		PlayerID:     p.ID,
		PersistentID: p.Token,
	}})
	s.broadcastExcept(p.ID, models.Message{Type: models.MsgPlayerJoined, Payload: models.PlayerPayload{Player: publicPlayer(p)}})
	return p, nil
}

// reconnect binds a new connection to a disconnected player, keeping score
// and history. Repeating it on the connection already bound is a no-op.
func (s *Session) reconnect(p *models.Player, connectionID string) error {
	if connectionID == "" {
		return nil
	}
	if p.IsConnected {
		if p.ConnectionID == connectionID {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, p.ID)
	}
	s.touch()

	p.ConnectionID = connectionID
	p.IsConnected = true

	s.logger.Info("Player reconnected", "game_id", s.game.ID, "player_id", p.ID, "is_host", p.IsHost)

	s.send(p, models.Message{Type: models.MsgGameJoined, Payload: models.GameJoinedPayload{
		Game:         ViewFor(s.game, roleOf(p)),
		PlayerID:     p.ID,
		PersistentID: p.Token,
	}})
	if s.game.Phase != models.PhaseFinished {
		s.broadcastExcept(p.ID, models.Message{Type: models.MsgPlayerReconnected, Payload: models.PlayerPayload{Player: publicPlayer(p)}})
	}
	return nil
}

// member returns the player the connection is bound to
func (s *Session) member(connectionID string) (*models.Player, error) {
	if connectionID != "" {
		for _, p := range s.game.Players {
			if p.IsConnected && p.ConnectionID == connectionID {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: connection is not part of game %s", ErrForbidden, s.game.ID)
}

func (s *Session) playerByToken(token string) *models.Player {
	if token == "" {
		return nil
	}
	for _, p := range s.game.Players {
		if p.Token == token {
			return p
		}
	}
	return nil
}

// disconnect marks the player offline if connectionID is still the one bound to it
func (s *Session) disconnect(playerID, connectionID string) {
	p, ok := s.game.Players[playerID]
	if !ok || !p.IsConnected || p.ConnectionID != connectionID {
		return
	}
	s.touch()

	p.IsConnected = false
	p.ConnectionID = ""

	s.logger.Info("Player disconnected", "game_id", s.game.ID, "player_id", p.ID, "is_host", p.IsHost)

	if s.game.Phase == models.PhaseFinished {
		return
	}
	s.broadcastExcept(p.ID, models.Message{Type: models.MsgPlayerDisconnected, Payload: models.PlayerIDPayload{PlayerID: p.ID}})

	if s.allAnswered() {
		s.closeAnswers()
	}
}

// toggleDyslexiaSupport flips the reading aid of a non-host player
func (s *Session) toggleDyslexiaSupport(hostID, playerID string) (bool, error) {
	if _, err := s.requireHost(hostID); err != nil {
		return false, err
	}
	if s.game.Phase == models.PhaseFinished {
		return false, fmt.Errorf("%w: game already finished", ErrPhase)
	}
	p, ok := s.game.Players[playerID]
	if !ok {
		return false, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.IsHost {
		return false, fmt.Errorf("%w: the host has no dyslexia support setting", ErrForbidden)
	}
	s.touch()

	p.HasDyslexiaSupport = !p.HasDyslexiaSupport
	s.broadcast(func(m *models.Player) models.Message {
		return models.Message{Type: models.MsgGameUpdated, Payload: ViewFor(s.game, roleOf(m))}
	})
	return p.HasDyslexiaSupport, nil
}

// removePlayer kicks a player out of the lobby and returns its connection id
func (s *Session) removePlayer(hostID, playerID string) (string, error) {
	if _, err := s.requireHost(hostID); err != nil {
		return "", err
	}
	if s.game.Phase != models.PhaseWaiting {
		return "", fmt.Errorf("%w: players can only be removed in the lobby", ErrPhase)
	}
	p, ok := s.game.Players[playerID]
	if !ok {
		return "", fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.IsHost {
		return "", fmt.Errorf("%w: the host cannot be removed", ErrForbidden)
	}
	s.touch()

	msg := models.Message{Type: models.MsgPlayerLeft, Payload: models.PlayerIDPayload{PlayerID: p.ID}}
	s.send(p, msg)
	delete(s.game.Players, playerID)
	s.broadcastAll(msg)

	s.logger.Info("Player removed", "game_id", s.game.ID, "player_id", playerID)
	return p.ConnectionID, nil
}

// connectedCount counts members with a live connection, host included
func (s *Session) connectedCount() int {
	n := 0
	for _, p := range s.game.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// publicPlayer strips what other clients must not see
func publicPlayer(p *models.Player) models.Player {
	cp := *p
	cp.Token = ""
	cp.ConnectionID = ""
	cp.CurrentAnswer = nil
	return cp
}
