package syncclient

import (
	"errors"
	"time"

	"market-chat/internal/models"
)

var (
	ErrClosed     = errors.New("syncclient: closed")
	ErrRunning    = errors.New("syncclient: already running")
	ErrNoPeer     = errors.New("syncclient: no peer selected")
	ErrEmptyDraft = errors.New("syncclient: draft is empty")
)

// State is the poll loop state.
type State int

const (
	Idle State = iota
	Loading
	Synced
	Error
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Synced:
		return "synced"
	case Error:
		return "error"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ViewState is the thread view's own state: which peer is open and what
// is typed into the composer.
type ViewState struct {
	SelectedPeer int64
	Draft        string
	DraftImage   string
}

// Snapshot is a consistent copy of everything the view renders.
type Snapshot struct {
	State    State
	Contacts []models.Contact
	Thread   models.Thread
	View     ViewState
	Err      error
	SyncedAt time.Time
}
