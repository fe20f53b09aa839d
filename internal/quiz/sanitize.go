package quiz

import (
	"slices"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// Role is the viewer class a payload is prepared for
type Role int

const (
	RolePlayer Role = iota
	RoleHost
)

// SanitizeQuestion returns a copy of q without its answer key
func SanitizeQuestion(q models.Question) models.Question {
	out := cloneQuestion(q)
	out.CorrectAnswers = nil
	return out
}

// QuestionFor returns the question as the given role may see it in the given phase
func QuestionFor(q models.Question, role Role, phase models.Phase) models.Question {
	if role == RoleHost || phase.Revealed() {
		return cloneQuestion(q)
	}
	return SanitizeQuestion(q)
}

// ViewFor returns a deep copy of the game as the given role may see it.
// Hosts get everything. Players only get answer keys of questions already
// revealed, and never see anyone's pending answer or which id is the host.
func ViewFor(g *models.Game, role Role) models.Game {
	view := *g
	view.Questions = make([]models.Question, len(g.Questions))
	for i, q := range g.Questions {
		switch {
		case role == RoleHost:
			view.Questions[i] = cloneQuestion(q)
		case i < g.CurrentQuestionIndex:
			view.Questions[i] = cloneQuestion(q)
		case i == g.CurrentQuestionIndex && g.Phase.Revealed():
			view.Questions[i] = cloneQuestion(q)
		default:
			view.Questions[i] = SanitizeQuestion(q)
		}
	}

	// Tokens and connection ids stay server side for every role
	view.Players = make(map[string]*models.Player, len(g.Players))
	for id, p := range g.Players {
		cp := *p
		cp.Token = ""
		cp.ConnectionID = ""
		cp.CurrentAnswer = slices.Clone(p.CurrentAnswer)
		if role != RoleHost {
			cp.CurrentAnswer = nil
		}
		view.Players[id] = &cp
	}
	if role != RoleHost {
		view.HostID = ""
	}

	view.AnswerHistory = make([]models.AnswerRecord, 0, len(g.AnswerHistory))
	for _, r := range g.AnswerHistory {
		if role != RoleHost && !recordRevealed(g, r) {
			continue
		}
		r.AnswerIndices = slices.Clone(r.AnswerIndices)
		view.AnswerHistory = append(view.AnswerHistory, r)
	}

	return view
}

// recordRevealed hides the current question's history until its results are shown
func recordRevealed(g *models.Game, r models.AnswerRecord) bool {
	if r.QuestionIndex < g.CurrentQuestionIndex {
		return true
	}
	return r.QuestionIndex == g.CurrentQuestionIndex && g.Phase.Revealed()
}

func cloneQuestion(q models.Question) models.Question {
	q.Options = slices.Clone(q.Options)
	q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
	return q
}
