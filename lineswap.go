// Package lineswap defines the buffer, mode, and configuration types shared
// by the lineswap commands. The actual exchange protocol lives in the
// exchange package; shell integration snippets live in the snippets package.
package lineswap

import "fmt"

// Buffer is a snapshot of the interactive shell's not-yet-submitted input
// line together with the cursor offset into it.
type Buffer struct {
	// Content is the command line text.
	Content string
	// Cursor is the byte offset of the cursor within Content.
	Cursor int
}

// Clamped returns the buffer with the cursor bounded to [0, len(Content)].
func (b Buffer) Clamped() Buffer {
	if b.Cursor < 0 {
		b.Cursor = 0
	}
	if b.Cursor > len(b.Content) {
		b.Cursor = len(b.Content)
	}
	return b
}

// Mode selects what the assistant does with the buffer.
type Mode string

const (
	// ModeAsk asks the assistant to generate a command from the buffer text.
	ModeAsk Mode = "ask"
	// ModeExplain asks the assistant to explain the command in the buffer.
	ModeExplain Mode = "explain"
)

// ParseMode maps a user-supplied mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAsk, ModeExplain:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeAsk, ModeExplain)
}
