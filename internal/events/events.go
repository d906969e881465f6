// Package events carries progress from long-running operations to whatever
// is displaying them.
package events

import (
	"github.com/google/uuid"
	"github.com/pders01/ytsweep/internal/comments"
)

// Operation names the kind of work an event belongs to.
type Operation string

const (
	OpSearch Operation = "search"
	OpDelete Operation = "delete"
	OpLogin  Operation = "login"
	OpLogout Operation = "logout"
)

// Event is implemented by every event type below.
type Event interface {
	// Op returns the operation and its id. Auth events share the id of
	// their single request.
	Op() (Operation, string)
}

// Meta is embedded in every event.
type Meta struct {
	Operation   Operation `json:"operation"`
	OperationID string    `json:"operation_id"`
}

func (m Meta) Op() (Operation, string) { return m.Operation, m.OperationID }

// NewMeta stamps a fresh operation id.
func NewMeta(op Operation) Meta {
	return Meta{Operation: op, OperationID: uuid.NewString()}
}

type Started struct {
	Meta
}

// Status is a human-readable line about what is happening now.
type Status struct {
	Meta
	Text string
}

// Progress reports processed over seen-so-far. During a search Total grows
// as more playlist pages arrive, so Fraction can move backwards.
type Progress struct {
	Meta
	Done  int
	Total int
}

func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Done) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Quota is the running quota total for the session.
type Quota struct {
	Meta
	Used int64
}

// VideoSkipped is a non-fatal per-video failure during a search.
type VideoSkipped struct {
	Meta
	VideoID    string
	VideoTitle string
	Err        error
}

// DeleteProgress follows every single delete attempt.
type DeleteProgress struct {
	Meta
	ID        string
	OK        bool
	Reason    string
	Succeeded int
	Failed    int
	Total     int
}

type SearchCompleted struct {
	Meta
	Keyword    string
	Exclusions []string
	Result     *comments.Result
	Quota      int64
	Videos     int
	Skipped    int
}

type DeleteCompleted struct {
	Meta
	Report comments.DeleteReport
}

// Failed ends an operation with an error. Partial holds whatever a search
// had collected before it stopped.
type Failed struct {
	Meta
	Err     error
	Partial *comments.Result
}

type LoginSucceeded struct {
	Meta
	ChannelID    string
	ChannelTitle string
}

type LoginFailed struct {
	Meta
	Err error
}

type LoggedOut struct {
	Meta
}
