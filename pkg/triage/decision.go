// Package triage classifies a help-desk message into the action that should
// handle it.
package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the triage outcome.
type Category int

const (
	AutoResolve Category = iota + 1
	AskInfo
	OpenTicket
)

func (c Category) String() string {
	switch c {
	case AutoResolve:
		return "AUTO_RESOLVE"
	case AskInfo:
		return "ASK_INFO"
	case OpenTicket:
		return "OPEN_TICKET"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory matches s case-insensitively against the English labels and
// the Portuguese labels used by the help-desk team.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTO_RESOLVE", "AUTO_RESOLVER":
		return AutoResolve, nil
	case "ASK_INFO", "PEDIR_INFO":
		return AskInfo, nil
	case "OPEN_TICKET", "ABRIR_CHAMADO":
		return OpenTicket, nil
	default:
		return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidDecision, s)
	}
}

// Urgency is the classifier's estimate of how pressing the request is.
type Urgency int

const (
	Low Urgency = iota + 1
	Medium
	High
)

func (u Urgency) String() string {
	switch u {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("Urgency(%d)", int(u))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// ParseUrgency accepts LOW/MEDIUM/HIGH and BAIXA/MEDIA/ALTA, any case.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW", "BAIXA":
		return Low, nil
	case "MEDIUM", "MEDIA", "MÉDIA":
		return Medium, nil
	case "HIGH", "ALTA":
		return High, nil
	default:
		return 0, fmt.Errorf("%w: unknown urgency %q", ErrInvalidDecision, s)
	}
}

// Decision is the immutable result of classifying one message.
type Decision struct {
	Category      Category `json:"category"`
	Urgency       Urgency  `json:"urgency"`
	MissingFields []string `json:"missing_fields"`
}

// MarshalJSON keeps missing_fields an array even when empty.
func (d Decision) MarshalJSON() ([]byte, error) {
	type plain Decision
	p := plain(d)
	if p.MissingFields == nil {
		p.MissingFields = []string{}
	}
	return json.Marshal(p)
}
