package exchange

import (
	"fmt"

	lineswap "github.com/lineswap/lineswap"
)

// State is a session lifecycle state.
type State int

const (
	// StateIdle is both the initial and terminal state.
	StateIdle State = iota
	// StateCapturing: the buffer is being snapshotted into a fresh slot.
	StateCapturing
	// StateExchanging: the slot belongs to the assistant process.
	StateExchanging
	// StateCommitting: the slot content is being adopted as the new buffer.
	StateCommitting
	// StateRollingBack: the original buffer is being restored.
	StateRollingBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateExchanging:
		return "exchanging"
	case StateCommitting:
		return "committing"
	case StateRollingBack:
		return "rolling_back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal state machine edges:
// idle → capturing → exchanging → {committing | rolling_back} → idle.
// Capturing may fall back to idle when slot allocation fails before spawn.
var transitions = map[State][]State{
	StateIdle:        {StateCapturing},
	StateCapturing:   {StateExchanging, StateIdle},
	StateExchanging:  {StateCommitting, StateRollingBack},
	StateCommitting:  {StateIdle},
	StateRollingBack: {StateIdle},
}

// Session is one exchange lifecycle: capture, external invocation,
// commit-or-rollback, cleanup. Sessions are not concurrent within one
// coordinator and none of their states are reentrant.
type Session struct {
	id       string
	mode     lineswap.Mode
	config   *lineswap.Config
	original lineswap.Buffer
	slot     *slot
	state    State
}

// ID returns the session identifier used for log correlation.
func (s *Session) ID() string { return s.id }

// Mode returns the session's assistant mode.
func (s *Session) Mode() lineswap.Mode { return s.mode }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// SlotPath returns the transient file path, or "" before capture.
func (s *Session) SlotPath() string {
	if s.slot == nil {
		return ""
	}
	return s.slot.path
}

// Original returns the buffer captured when the session began.
func (s *Session) Original() lineswap.Buffer { return s.original }

func (s *Session) transition(to State) error {
	for _, next := range transitions[s.state] {
		if next == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal session transition %s → %s", s.state, to)
}
