package draft

import (
	"fmt"

	"github.com/leandroblox/open-kahoot/internal/models"
)

// Edit ops
const (
	OpInsert            = "insert"
	OpRemove            = "remove"
	OpMove              = "move"
	OpSetQuestion       = "setQuestion"
	OpSetExplanation    = "setExplanation"
	OpSetImage          = "setImage"
	OpSetTimeLimit      = "setTimeLimit"
	OpSetOption         = "setOption"
	OpSetCorrectAnswers = "setCorrectAnswers"
	OpChangeType        = "changeType"
	OpSetOptionCount    = "setOptionCount"
	OpRemoveOption      = "removeOption"
)

// Edit is the wire form of one editor action. Question addresses the
// question; Index addresses an option.
type Edit struct {
	Op       string              `json:"op"`
	Question int                 `json:"question"`
	Index    int                 `json:"index,omitempty"`
	Text     string              `json:"text,omitempty"`
	Indices  []int               `json:"indices,omitempty"`
	Type     models.QuestionType `json:"type,omitempty"`
	Count    int                 `json:"count,omitempty"`
	Seconds  int                 `json:"seconds,omitempty"`
	Delta    int                 `json:"delta,omitempty"`
}

func (e Edit) command() (Command, error) {
	switch e.Op {
	case OpSetQuestion:
		return SetQuestionText{Text: e.Text}, nil
	case OpSetExplanation:
		return SetExplanation{Text: e.Text}, nil
	case OpSetImage:
		return SetImage{Data: e.Text}, nil
	case OpSetTimeLimit:
		return SetTimeLimit{Seconds: e.Seconds}, nil
	case OpSetOption:
		return SetOption{Index: e.Index, Text: e.Text}, nil
	case OpSetCorrectAnswers:
		return SetCorrectAnswers{Indices: e.Indices}, nil
	case OpChangeType:
		return ChangeType{Type: e.Type}, nil
	case OpSetOptionCount:
		return SetOptionCount{Count: e.Count}, nil
	case OpRemoveOption:
		return RemoveOption{Index: e.Index}, nil
	}
	return nil, fmt.Errorf("unknown edit op %q", e.Op)
}

// ApplyEdits runs edits in order and stops at the first one that fails.
// Edits before the failing one stay applied.
func (d *Quiz) ApplyEdits(edits []Edit) error {
	for i, e := range edits {
		var err error
		switch e.Op {
		case OpInsert:
			d.Insert(e.Question, e.Type)
		case OpRemove:
			err = d.Remove(e.Question)
		case OpMove:
			d.Move(e.Question, e.Delta)
		default:
			var cmd Command
			if cmd, err = e.command(); err == nil {
				err = d.Update(e.Question, cmd)
			}
		}
		if err != nil {
			return fmt.Errorf("edit %d (%s): %w", i+1, e.Op, err)
		}
	}
	return nil
}
