package handlers

import (
	"encoding/json"
	"errors"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// dispatch runs one inbound command. The caller is always the player bound to
// c; ids inside payloads only ever name a game or a target. Replies and
// broadcasts are sent by the game itself; only failures and the few direct
// answers are sent here.
func (h *Handler) dispatch(c *Client, msg inboundMessage) {
	log := h.logger.With("connection_id", c.id, "msg_type", msg.Type)
	log.Debug("WebSocket message received")

	var err error
	switch msg.Type {
	case models.MsgCreateGame:
		var req createGameRequest
		if err = decode(msg.Payload, &req); err == nil {
			err = h.createGame(c, req)
		}

	case models.MsgJoinGame:
		var req models.JoinGameRequest
		if err = decode(msg.Payload, &req); err == nil {
			_, _, err = h.manager.Join(req.Pin, req.PlayerName, req.PersistentID, c.id)
		}

	case models.MsgValidateGame:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			h.validateGame(c, req)
		}

	case models.MsgStartGame:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			err = h.manager.StartGame(req.GameID, c.id)
		}

	case models.MsgSubmitAnswer:
		var req models.SubmitAnswerRequest
		if err = decode(msg.Payload, &req); err == nil {
			_, err = h.manager.SubmitAnswer(req.GameID, req.QuestionID, c.id, req.AnswerIndices)
		}

	case models.MsgNextQuestion:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			_, err = h.manager.NextQuestion(req.GameID, c.id)
		}

	case models.MsgShowLeaderboard:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			err = h.manager.ShowLeaderboard(req.GameID, c.id)
		}

	case models.MsgEndGame:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			err = h.manager.EndGame(req.GameID, c.id)
		}

	case models.MsgDownloadGameLogs:
		var req models.GameCommand
		if err = decode(msg.Payload, &req); err == nil {
			_, _, err = h.manager.DownloadLogs(req.GameID, c.id)
		}

	case models.MsgToggleDyslexiaSupport:
		var req models.TargetPlayerRequest
		if err = decode(msg.Payload, &req); err == nil {
			_, err = h.manager.ToggleDyslexiaSupport(req.GameID, c.id, req.TargetID)
		}

	case models.MsgRemovePlayer:
		var req models.TargetPlayerRequest
		if err = decode(msg.Payload, &req); err == nil {
			err = h.manager.RemovePlayer(req.GameID, c.id, req.TargetID)
		}

	case models.MsgPing:
		c.sendMessage(models.MsgPong, nil)

	default:
		log.Warn("Unknown message type")
		c.sendError("Unknown message type: " + string(msg.Type))
		return
	}

	if err != nil {
		log.Info("Command rejected", "error", err)
		c.sendError(err.Error())
	}
}

func (h *Handler) createGame(c *Client, req createGameRequest) error {
	title, questions, settings, err := resolveDefinition(req)
	if err != nil {
		return err
	}
	_, _, err = h.manager.CreateGame(title, questions, settings, c.id)
	return err
}

// validateGame answers whether the holder of the persistent id still belongs
// to the game. A player whose connection dropped is rebound to c.
func (h *Handler) validateGame(c *Client, req models.GameCommand) {
	view, err := h.manager.ValidateGame(req.GameID, req.PersistentID, c.id)
	if err != nil {
		h.logger.Info("Validation refused", "connection_id", c.id, "game_id", req.GameID, "error", err)
		c.sendMessage(models.MsgGameValidated, models.GameValidatedPayload{Valid: false})
		return
	}
	c.sendMessage(models.MsgGameValidated, models.GameValidatedPayload{Valid: true, Game: &view})
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
