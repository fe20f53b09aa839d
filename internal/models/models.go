package models

import (
	"time"
)

// QuestionType determines how many options and correct answers a question allows
type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionBoolean  QuestionType = "boolean"
)

// Phase represents the state of a game session
type Phase string

const (
	PhaseWaiting     Phase = "waiting"     // Lobby, players may join
	PhasePreparation Phase = "preparation" // Game started, first question about to appear
	PhaseThinking    Phase = "thinking"    // Question shown, answers not yet accepted
	PhaseAnswering   Phase = "answering"   // Answers accepted
	PhaseResults     Phase = "results"     // Answer key revealed
	PhaseLeaderboard Phase = "leaderboard" // Ranking shown
	PhaseFinished    Phase = "finished"    // Terminal
)

// Revealed reports whether the answer key of the current question may be shown in this phase
func (p Phase) Revealed() bool {
	return p == PhaseResults || p == PhaseLeaderboard || p == PhaseFinished
}

// GameSettings holds the per-game phase durations in seconds
type GameSettings struct {
	ThinkTime  int `json:"thinkTime"`
	AnswerTime int `json:"answerTime"`
}

// Question represents a single quiz question
type Question struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Options        []string     `json:"options"`
	CorrectAnswers []int        `json:"correctAnswers,omitempty"` // nil once sanitized
	TimeLimit      int          `json:"timeLimit"`                // in seconds
	Type           QuestionType `json:"type"`
	Explanation    string       `json:"explanation,omitempty"`
	Image          string       `json:"image,omitempty"`
}

// Player represents a participant (or the host) in a game. ID is public and
// keys the game's player map. Token is the secret persistent id the owner
// reconnects with and never leaves the server except to that owner.
type Player struct {
	ID                 string    `json:"id"`
	Token              string    `json:"-"`
	ConnectionID       string    `json:"-"`
	Name               string    `json:"name"`
	Score              int       `json:"score"`
	IsHost             bool      `json:"isHost"`
	IsConnected        bool      `json:"isConnected"`
	HasDyslexiaSupport bool      `json:"hasDyslexiaSupport"`
	CurrentAnswer      []int     `json:"currentAnswer,omitempty"`
	JoinedAt           time.Time `json:"joinedAt"`
}

// AnswerRecord is the immutable fact of one player's response to one question
type AnswerRecord struct {
	PlayerID           string `json:"playerId"`
	PlayerName         string `json:"playerName"`
	QuestionIndex      int    `json:"questionIndex"`
	QuestionID         string `json:"questionId"`
	AnswerIndices      []int  `json:"answerIndices"` // nil if no answer was given
	ResponseTimeMs     int64  `json:"responseTime"`
	PointsEarned       int    `json:"pointsEarned"`
	WasCorrect         bool   `json:"wasCorrect"`
	HasDyslexiaSupport bool   `json:"hasDyslexiaSupport"`
}

// Game represents one quiz session
type Game struct {
	ID                   string             `json:"id"`
	Pin                  string             `json:"pin"`
	HostID               string             `json:"hostId"`
	Title                string             `json:"title"`
	Questions            []Question         `json:"questions"`
	Settings             GameSettings       `json:"settings"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	Phase                Phase              `json:"phase"`
	PhaseStartTime       time.Time          `json:"phaseStartTime"`
	PhaseEndTime         time.Time          `json:"phaseEndTime"`
	Players              map[string]*Player `json:"players"`
	AnswerHistory        []AnswerRecord     `json:"answerHistory"`
	CreatedAt            time.Time          `json:"createdAt"`
}

// CurrentQuestion returns the question at the current index
func (g *Game) CurrentQuestion() *Question {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentQuestionIndex]
}

// IsLastQuestion reports whether the current question is the final one
func (g *Game) IsLastQuestion() bool {
	return g.CurrentQuestionIndex+1 >= len(g.Questions)
}

// HasAnswered reports whether the player already has a record for the question
func (g *Game) HasAnswered(playerID string, questionIndex int) bool {
	for _, r := range g.AnswerHistory {
		if r.PlayerID == playerID && r.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}

// Record returns the player's record for the question, if any
func (g *Game) Record(playerID string, questionIndex int) (AnswerRecord, bool) {
	for _, r := range g.AnswerHistory {
		if r.PlayerID == playerID && r.QuestionIndex == questionIndex {
			return r, true
		}
	}
	return AnswerRecord{}, false
}

// OptionStat is the answer distribution of one option
type OptionStat struct {
	OptionIndex int     `json:"optionIndex"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// GameStats aggregates the answers to the current question
type GameStats struct {
	Question       Question     `json:"question"`
	Answers        []OptionStat `json:"answers"`
	CorrectAnswers int          `json:"correctAnswers"`
	TotalPlayers   int          `json:"totalPlayers"`
}

// PersonalResult is sent to each player when a question ends
type PersonalResult struct {
	WasCorrect     bool    `json:"wasCorrect"`
	PointsEarned   int     `json:"pointsEarned"`
	TotalScore     int     `json:"totalScore"`
	Position       int     `json:"position"`
	PointsBehind   int     `json:"pointsBehind"`
	NextPlayerName *string `json:"nextPlayerName"`
	Explanation    string  `json:"explanation,omitempty"`
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsConnected bool   `json:"isConnected"`
}
