package assist

import (
	"fmt"

	"github.com/zen-systems/erpassist/pkg/triage"
)

// Action is the terminal action of a turn.
type Action int

const (
	ActionNone Action = iota
	ActionAutoResolve
	ActionAskInfo
	ActionOpenTicket
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return ""
	case ActionAutoResolve:
		return "AUTO_RESOLVE"
	case ActionAskInfo:
		return "ASK_INFO"
	case ActionOpenTicket:
		return "OPEN_TICKET"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Citation points at a manual page that grounded the answer.
type Citation struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
}

// TurnState is the outcome of one question. It is built up by merging step
// updates and is not modified once the turn ends.
type TurnState struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	Triage    *triage.Decision `json:"triage,omitempty"`
	Answer    string           `json:"answer"`
	Citations []Citation       `json:"citations"`
	Images    []string         `json:"images"`
	Grounded  bool             `json:"grounded"`
	Action    Action           `json:"action"`
}

// Update is what a step contributes to the turn. Nil fields are left alone.
type Update struct {
	Triage    *triage.Decision
	Answer    *string
	Citations []Citation
	Images    []string
	Grounded  *bool
	Action    *Action
}

func (s TurnState) apply(u Update) TurnState {
	if u.Triage != nil {
		d := *u.Triage
		s.Triage = &d
	}
	if u.Answer != nil {
		s.Answer = *u.Answer
	}
	if u.Citations != nil {
		s.Citations = append([]Citation(nil), u.Citations...)
	}
	if u.Images != nil {
		s.Images = append([]string(nil), u.Images...)
	}
	if u.Grounded != nil {
		s.Grounded = *u.Grounded
	}
	if u.Action != nil {
		s.Action = *u.Action
	}
	return s
}

type step int

const (
	stepTriage step = iota
	stepAutoResolve
	stepAskInfo
	stepOpenTicket
	stepDone
)

func (s step) String() string {
	switch s {
	case stepTriage:
		return "triage"
	case stepAutoResolve:
		return "auto_resolve"
	case stepAskInfo:
		return "ask_info"
	case stepOpenTicket:
		return "open_ticket"
	case stepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func ptr[T any](v T) *T {
	return &v
}
