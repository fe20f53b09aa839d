package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/leandroblox/open-kahoot/internal/draft"
	"github.com/leandroblox/open-kahoot/internal/models"
	"github.com/leandroblox/open-kahoot/internal/parser"
	"github.com/leandroblox/open-kahoot/internal/quiz"
)

const maxBodySize = 8 << 20

// createGameRequest is a create request plus editor actions to run on its
// questions before they are finalized
type createGameRequest struct {
	models.CreateGameRequest
	Edits []draft.Edit `json:"edits,omitempty"`
}

// Handler serves the HTTP API and the WebSocket endpoint
type Handler struct {
	manager  *quiz.Manager
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler. An empty allowedOrigins accepts
// WebSocket upgrades from any origin.
func NewHandler(manager *quiz.Manager, hub *Hub, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: logger,
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/games", h.CreateGameHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/games/pin/{pin}", h.GetGameByPinHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/games/{id}/logs", h.DownloadLogsHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.WebSocketHandler)
}

// HealthHandler reports liveness
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"games":   h.manager.Len(),
		"clients": h.hub.Len(),
	})
}

// CreateGameHandler creates a game whose host is not yet connected. The host
// attaches later by sending joinGame with the returned pin and persistentId.
func (h *Handler) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("CreateGame request received", "remote_addr", r.RemoteAddr, "content_type", r.Header.Get("Content-Type"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var req createGameRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/markdown") {
		req.Markdown = string(body)
	} else if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("CreateGame failed to decode JSON body", "error", err)
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	title, questions, settings, err := resolveDefinition(req)
	if err != nil {
		h.logger.Warn("CreateGame failed to parse markdown", "error", err)
		http.Error(w, fmt.Sprintf("Failed to parse quiz: %v", err), http.StatusBadRequest)
		return
	}

	seat, game, err := h.manager.CreateGame(title, questions, settings, "")
	if err != nil {
		h.logger.Warn("CreateGame rejected", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"gameId":       game.ID,
		"pin":          game.Pin,
		"playerId":     seat.PlayerID,
		"persistentId": seat.Token,
		"game":         game,
	})
}

// GetGameByPinHandler tells a would-be player whether a pin is live
func (h *Handler) GetGameByPinHandler(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]

	s, err := h.manager.FindByPin(pin)
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	view := s.View(quiz.RolePlayer)
	players := 0
	for _, p := range view.Players {
		if !p.IsHost {
			players++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":        view.ID,
		"pin":           view.Pin,
		"title":         view.Title,
		"phase":         view.Phase,
		"playerCount":   players,
		"questionCount": len(view.Questions),
	})
}

// DownloadLogsHandler returns the answer log as a TSV attachment. The
// player_id query parameter must be the host's persistent id.
func (h *Handler) DownloadLogsHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("player_id")

	data, filename, err := h.manager.ExportLogFor(gameID, token)
	if err != nil {
		h.logger.Info("Log download refused", "error", err, "game_id", gameID)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	io.WriteString(w, data)
}

// WebSocketHandler upgrades the request and serves the connection until
// it closes
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	c := newClient(h.hub, conn)
	h.hub.register(c)

	go c.writePump()
	go c.readPump(h.dispatch, func(c *Client) {
		h.manager.Disconnect(c.id)
	})
}

// resolveDefinition turns a create request into a title, questions and
// settings. Markdown wins over inline questions. Edits run on whichever
// questions were given, and blank options left by the editor are dropped.
func resolveDefinition(req createGameRequest) (string, []models.Question, models.GameSettings, error) {
	title, questions, settings := req.Title, req.Questions, req.Settings
	if strings.TrimSpace(req.Markdown) != "" {
		def, err := parser.ParseQuizMarkdown(req.Markdown)
		if err != nil {
			return "", nil, models.GameSettings{}, err
		}
		if strings.TrimSpace(title) == "" {
			title = def.Title
		}
		questions, settings = def.Questions, def.Settings
	}

	edited := draft.Quiz{Questions: slices.Clone(questions)}
	if err := edited.ApplyEdits(req.Edits); err != nil {
		return "", nil, models.GameSettings{}, err
	}
	return title, edited.Finalize(), settings, nil
}

func statusFor(err error) int {
	switch {
	case quiz.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrPhase),
		errors.Is(err, quiz.ErrStaleQuestion),
		errors.Is(err, quiz.ErrDuplicateAnswer),
		errors.Is(err, quiz.ErrAlreadyConnected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
