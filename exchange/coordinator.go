// Package exchange implements the buffer exchange protocol between an
// interactive shell and the external assistant binary: capture the edit
// buffer, hand it to the assistant through a uniquely named transient file,
// and commit or roll back the buffer when the assistant exits. The slot is
// always released exactly once, on every exit path.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	lineswap "github.com/lineswap/lineswap"
	"github.com/lineswap/lineswap/contextinfo"
)

// Status is the outcome of running the assistant over a slot.
type Status int

const (
	// StatusSuccess: the assistant ran to completion (exit 0). The slot
	// content is the source of truth for the new buffer.
	StatusSuccess Status = iota
	// StatusFailure: the assistant could not be launched, crashed, or
	// exited non-zero. The original buffer must be restored.
	StatusFailure
	// StatusCancelled: the user interrupted the exchange. Handled like
	// failure for the buffer, but not surfaced as an error.
	StatusCancelled
)

// Result carries the outcome of Run for End to commit or roll back.
type Result struct {
	Status Status

	// content is the slot's final content, valid only when ok is set.
	// On failure it is still read best-effort but never committed.
	content string
	ok      bool
}

// Coordinator drives exchange sessions. The shell's input loop is the only
// scheduler: at most one session is active per coordinator, and Run blocks
// the caller until the assistant exits.
type Coordinator struct {
	programs *contextinfo.ProgramIndex

	mu     sync.Mutex
	active *Session
}

// New creates a coordinator. Close must be called to stop the program
// index's cache loop.
func New() *Coordinator {
	return &Coordinator{programs: contextinfo.NewProgramIndex()}
}

// Close releases resources held by the coordinator.
func (c *Coordinator) Close() {
	c.programs.Close()
}

// Begin captures the buffer and cursor offset and materializes the content
// into a fresh slot. If allocation or the initial write fails the session
// is aborted before any process is spawned and the original buffer is left
// untouched. Begin fails while another session has not reached idle.
func (c *Coordinator) Begin(mode lineswap.Mode, buf lineswap.Buffer, cfg *lineswap.Config) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, fmt.Errorf("session %s is still active (state %s)", c.active.id, c.active.state)
	}

	s := &Session{
		id:       uuid.NewString(),
		mode:     mode,
		config:   cfg,
		original: buf.Clamped(),
		state:    StateIdle,
	}
	if err := s.transition(StateCapturing); err != nil {
		return nil, err
	}

	sl, err := newSlot(s.id[:8], s.original.Content)
	if err != nil {
		s.transition(StateIdle)
		return nil, &Error{Code: CodeTransientStorage, Err: err}
	}
	s.slot = sl

	if err := s.transition(StateExchanging); err != nil {
		sl.remove()
		return nil, err
	}
	c.active = s

	slog.Debug("session begun", "session", s.id, "mode", mode, "slot", sl.path, "bytes", len(s.original.Content))
	return s, nil
}

// Run invokes the assistant synchronously and reads the slot back once the
// process has exited. This is the protocol's single suspension point: the
// invoking shell stays blocked, and the slot belongs to the assistant for
// the whole call. Cancelling ctx kills the assistant and yields a cancelled
// result.
func (c *Coordinator) Run(ctx context.Context, s *Session) (Result, error) {
	if s.State() != StateExchanging {
		return Result{Status: StatusFailure}, fmt.Errorf("session %s is not exchanging (state %s)", s.id, s.state)
	}

	bin := lineswap.ResolveAssistantBin(s.config)
	if bin == "" {
		return Result{Status: StatusFailure}, &Error{Code: CodeLaunch, Err: errors.New("assistant binary not configured")}
	}

	args := c.buildArgs(ctx, s)
	cmd := exec.CommandContext(ctx, bin, args...)
	detach := attachTerminal(cmd)
	defer detach()

	slog.Debug("spawning assistant", "session", s.id, "bin", bin, "args", args)

	if err := cmd.Start(); err != nil {
		return Result{Status: StatusFailure}, &Error{Code: CodeLaunch, Err: err}
	}

	waitErr := cmd.Wait()

	res := Result{Status: StatusSuccess}
	switch {
	case waitErr == nil:
	case ctx.Err() != nil:
		res.Status = StatusCancelled
	default:
		res.Status = StatusFailure
	}

	// Read after termination only, never while the process owns the slot.
	// On failure the content is preserved best-effort but stays
	// non-authoritative; End will not commit it.
	content, readErr := s.slot.read()
	if readErr == nil {
		res.content, res.ok = content, true
	}

	switch res.Status {
	case StatusCancelled:
		slog.Debug("assistant cancelled", "session", s.id)
		return res, &Error{Code: CodeCancelled, Err: ctx.Err()}
	case StatusFailure:
		return res, &Error{Code: CodeRuntime, Err: waitErr}
	}
	if readErr != nil {
		res.Status = StatusFailure
		return res, &Error{Code: CodeTransientStorage, Err: readErr}
	}
	return res, nil
}

// End releases the slot exactly once and resolves the final buffer: the
// slot's content with the original cursor offset on success, the buffer
// captured at Begin byte-for-byte otherwise. The slot is removed on every
// path, including after crashes and cancellation.
func (c *Coordinator) End(s *Session, res Result) (lineswap.Buffer, error) {
	defer func() {
		if err := s.slot.remove(); err != nil {
			slog.Warn("failed to remove slot", "session", s.id, "error", err)
		}
		s.state = StateIdle
		c.mu.Lock()
		if c.active == s {
			c.active = nil
		}
		c.mu.Unlock()
		slog.Debug("session ended", "session", s.id)
	}()

	if res.Status == StatusSuccess && res.ok {
		if err := s.transition(StateCommitting); err != nil {
			return s.original, err
		}
		return lineswap.Buffer{Content: res.content, Cursor: s.original.Cursor}.Clamped(), nil
	}

	if err := s.transition(StateRollingBack); err != nil {
		return s.original, err
	}
	return s.original, nil
}

// Exchange runs one full session lifecycle. End is guaranteed on every exit
// path, so the slot never outlives the call. The returned buffer is always
// safe to adopt: the assistant's output on success, the input otherwise.
func (c *Coordinator) Exchange(ctx context.Context, mode lineswap.Mode, buf lineswap.Buffer, cfg *lineswap.Config) (lineswap.Buffer, error) {
	s, err := c.Begin(mode, buf, cfg)
	if err != nil {
		return buf.Clamped(), err
	}

	ended := false
	defer func() {
		if !ended {
			c.End(s, Result{Status: StatusFailure})
		}
	}()

	res, runErr := c.Run(ctx, s)
	out, endErr := c.End(s, res)
	ended = true

	if runErr != nil {
		return out, runErr
	}
	return out, endErr
}
