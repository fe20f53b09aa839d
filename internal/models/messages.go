package models

// MessageType names an inbound command or an outbound notification
type MessageType string

const (
	// Client -> Server
	MsgCreateGame            MessageType = "createGame"
	MsgJoinGame              MessageType = "joinGame"
	MsgValidateGame          MessageType = "validateGame"
	MsgStartGame             MessageType = "startGame"
	MsgSubmitAnswer          MessageType = "submitAnswer"
	MsgNextQuestion          MessageType = "nextQuestion"
	MsgShowLeaderboard       MessageType = "showLeaderboard"
	MsgEndGame               MessageType = "endGame"
	MsgDownloadGameLogs      MessageType = "downloadGameLogs"
	MsgToggleDyslexiaSupport MessageType = "toggleDyslexiaSupport"
	MsgRemovePlayer          MessageType = "removePlayer"
	MsgPing                  MessageType = "ping"

	// Server -> Client
	MsgGameCreated        MessageType = "gameCreated"
	MsgGameJoined         MessageType = "gameJoined"
	MsgGameValidated      MessageType = "gameValidated"
	MsgGameStarted        MessageType = "gameStarted"
	MsgThinkingPhase      MessageType = "thinkingPhase"
	MsgAnsweringPhase     MessageType = "answeringPhase"
	MsgPlayerAnswered     MessageType = "playerAnswered"
	MsgQuestionEnded      MessageType = "questionEnded"
	MsgHostResults        MessageType = "hostResults"
	MsgPersonalResult     MessageType = "personalResult"
	MsgLeaderboardShown   MessageType = "leaderboardShown"
	MsgGameFinished       MessageType = "gameFinished"
	MsgPlayerJoined       MessageType = "playerJoined"
	MsgPlayerReconnected  MessageType = "playerReconnected"
	MsgPlayerLeft         MessageType = "playerLeft"
	MsgPlayerDisconnected MessageType = "playerDisconnected"
	MsgGameUpdated        MessageType = "gameUpdated"
	MsgGameLogs           MessageType = "gameLogs"
	MsgError              MessageType = "error"
	MsgPong               MessageType = "pong"
)

// Message is the envelope exchanged with clients
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// CreateGameRequest is the payload of createGame
type CreateGameRequest struct {
	Title     string       `json:"title"`
	Questions []Question   `json:"questions"`
	Settings  GameSettings `json:"settings"`
	Markdown  string       `json:"markdown,omitempty"`
}

// JoinGameRequest is the payload of joinGame
type JoinGameRequest struct {
	Pin          string `json:"pin"`
	PlayerName   string `json:"playerName"`
	PersistentID string `json:"persistentId,omitempty"`
}

// GameCommand addresses a host or player command to a game. The caller is
// the player bound to the sending connection; PersistentID is only read by
// validateGame.
type GameCommand struct {
	GameID       string `json:"gameId"`
	PersistentID string `json:"persistentId,omitempty"`
}

// SubmitAnswerRequest is the payload of submitAnswer
type SubmitAnswerRequest struct {
	GameID        string `json:"gameId"`
	QuestionID    string `json:"questionId"`
	AnswerIndices []int  `json:"answerIndices"`
}

// TargetPlayerRequest is the payload of host commands aimed at another player
type TargetPlayerRequest struct {
	GameID   string `json:"gameId"`
	TargetID string `json:"targetPlayerId"`
}

// GameCreatedPayload answers createGame. PersistentID is the secret the
// host presents to reconnect; it is only ever sent to its owner.
type GameCreatedPayload struct {
	Game         Game   `json:"game"`
	PlayerID     string `json:"playerId"`
	PersistentID string `json:"persistentId"`
}

// GameJoinedPayload answers joinGame
type GameJoinedPayload struct {
	Game         Game   `json:"game"`
	PlayerID     string `json:"playerId"`
	PersistentID string `json:"persistentId"`
}

// GameValidatedPayload answers validateGame
type GameValidatedPayload struct {
	Valid bool  `json:"valid"`
	Game  *Game `json:"game,omitempty"`
}

// ThinkingPhasePayload announces a new question
type ThinkingPhasePayload struct {
	Question       Question `json:"question"`
	QuestionIndex  int      `json:"questionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	ThinkTime      int      `json:"thinkTime"`
}

// AnsweringPhasePayload opens answer collection
type AnsweringPhasePayload struct {
	AnswerTime int `json:"answerTime"`
}

// PlayerAnsweredPayload tells who answered, never what
type PlayerAnsweredPayload struct {
	PlayerID      string `json:"playerId"`
	AnsweredCount int    `json:"answeredCount"`
	TotalPlayers  int    `json:"totalPlayers"`
}

// LeaderboardPayload carries a ranking
type LeaderboardPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// PlayerPayload carries a single player
type PlayerPayload struct {
	Player Player `json:"player"`
}

// PlayerIDPayload carries a player id
type PlayerIDPayload struct {
	PlayerID string `json:"playerId"`
}

// GameLogsPayload carries the exported answer log
type GameLogsPayload struct {
	Data     string `json:"tsvData"`
	Filename string `json:"filename"`
}

// ErrorPayload carries an error message
type ErrorPayload struct {
	Message string `json:"message"`
}
