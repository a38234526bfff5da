package agenda

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// aliases maps every accepted spelling onto the canonical value. The
// Portuguese words are what the dashboard and older records use.
var aliases = map[string]Status{
	"pending":    StatusPending,
	"pendente":   StatusPending,
	"confirmed":  StatusConfirmed,
	"confirmado": StatusConfirmed,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"desmarcado": StatusCancelled,
	"cancelado":  StatusCancelled,
	"completed":  StatusCompleted,
	"concluido":  StatusCompleted,
	"concluído":  StatusCompleted,
}

var labels = map[Status]string{
	StatusPending:   "Pendente",
	StatusConfirmed: "Confirmado",
	StatusCancelled: "Desmarcado",
	StatusCompleted: "Concluído",
}

// ParseStatus accepts either vocabulary, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid appointment status: %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label is the Portuguese display text.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Active reports whether the appointment still occupies its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
