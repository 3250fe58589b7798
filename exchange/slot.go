package exchange

import (
	"fmt"
	"os"
)

// slot is the transient storage file that carries buffer text between the
// shell and the assistant. Access strictly alternates: the coordinator
// writes and flushes before the process starts, the process owns the file
// until it exits, and the coordinator reads only after termination. The
// alternation is enforced by the session state machine, so no file locking
// is needed.
type slot struct {
	path    string
	removed bool
}

// newSlot allocates a uniquely named transient file and writes content to
// it. The name comes from os.CreateTemp, so concurrent sessions in separate
// shells can never collide. On any failure the file is gone and the error
// is returned; nothing is retried.
func newSlot(id, content string) (*slot, error) {
	f, err := os.CreateTemp("", "lineswap-"+id+"-*.buf")
	if err != nil {
		return nil, fmt.Errorf("allocate slot: %w", err)
	}
	path := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write slot: %w", err)
	}
	// Flush before the assistant is spawned; it must observe the full
	// buffer content from its first read.
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sync slot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close slot: %w", err)
	}

	return &slot{path: path}, nil
}

// read returns the slot's current content.
func (s *slot) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read slot: %w", err)
	}
	return string(data), nil
}

// remove deletes the slot file. Safe to call more than once; only the first
// call touches the filesystem.
func (s *slot) remove() error {
	if s.removed {
		return nil
	}
	s.removed = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove slot: %w", err)
	}
	return nil
}
