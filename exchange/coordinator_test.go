package exchange

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	lineswap "github.com/lineswap/lineswap"
)

// writeScript writes a stub assistant to a temp dir and returns its path.
// The script locates the --edit-file argument before running body.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	script := `#!/bin/sh
file=""
while [ $# -gt 0 ]; do
    if [ "$1" = "--edit-file" ]; then
        file=$2
    fi
    shift
done
` + body + "\n"
	path := filepath.Join(t.TempDir(), "assistant.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(bin string) *lineswap.Config {
	cfg := lineswap.DefaultConfig()
	cfg.Assistant.Bin = bin
	return cfg
}

// isolateTempDir points TMPDIR at a fresh directory so slot files can be
// enumerated after the exchange.
func isolateTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	return dir
}

func slotFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "lineswap-*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c := New()
	t.Cleanup(c.Close)
	return c
}

func TestExchangeCommitsAssistantOutput(t *testing.T) {
	tmp := isolateTempDir(t)
	bin := writeScript(t, `printf 'ls -la\n' > "$file"`)
	c := newTestCoordinator(t)

	out, err := c.Exchange(context.Background(), lineswap.ModeAsk,
		lineswap.Buffer{Content: "list files", Cursor: 0}, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "ls -la\n" {
		t.Errorf("expected committed buffer %q, got %q", "ls -la\n", out.Content)
	}
	if out.Cursor != 0 {
		t.Errorf("expected cursor restored to 0, got %d", out.Cursor)
	}
	if left := slotFiles(t, tmp); len(left) != 0 {
		t.Errorf("expected no slot files after exchange, found %v", left)
	}
}

func TestExchangeRoundTripIdentity(t *testing.T) {
	tmp := isolateTempDir(t)
	bin := writeScript(t, `exit 0`)
	c := newTestCoordinator(t)

	in := lineswap.Buffer{Content: "git status", Cursor: 4}
	out, err := c.Exchange(context.Background(), lineswap.ModeAsk, in, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != in.Content {
		t.Errorf("expected untouched slot to round-trip, got %q", out.Content)
	}
	if out.Cursor != in.Cursor {
		t.Errorf("expected cursor %d, got %d", in.Cursor, out.Cursor)
	}
	if left := slotFiles(t, tmp); len(left) != 0 {
		t.Errorf("expected no slot files after exchange, found %v", left)
	}
}

func TestExchangeRollsBackOnNonZeroExit(t *testing.T) {
	tmp := isolateTempDir(t)
	// The assistant mangles the slot and then fails; none of the partial
	// edits may reach the buffer.
	bin := writeScript(t, `printf 'partial garbage' > "$file"; exit 3`)
	c := newTestCoordinator(t)

	in := lineswap.Buffer{Content: "rm -rf /", Cursor: 8}
	out, err := c.Exchange(context.Background(), lineswap.ModeExplain, in, testConfig(bin))
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if CodeOf(err) != CodeRuntime {
		t.Errorf("expected code %q, got %q (%v)", CodeRuntime, CodeOf(err), err)
	}
	if out.Content != in.Content || out.Cursor != in.Cursor {
		t.Errorf("expected original buffer restored, got %+v", out)
	}
	if left := slotFiles(t, tmp); len(left) != 0 {
		t.Errorf("expected no slot files after rollback, found %v", left)
	}
}

func TestExchangeCancelledRollsBack(t *testing.T) {
	tmp := isolateTempDir(t)
	bin := writeScript(t, `sleep 10`)
	c := newTestCoordinator(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	in := lineswap.Buffer{Content: "rm -rf /", Cursor: 0}
	out, err := c.Exchange(ctx, lineswap.ModeExplain, in, testConfig(bin))
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
	if !IsCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if out.Content != in.Content {
		t.Errorf("expected original buffer after cancel, got %q", out.Content)
	}
	if left := slotFiles(t, tmp); len(left) != 0 {
		t.Errorf("expected no orphaned slot after cancel, found %v", left)
	}
}

func TestExchangeSlotAllocationFailure(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	bin := writeScript(t, `touch `+marker)
	c := newTestCoordinator(t)

	// Unwritable temp dir: allocation must fail before any spawn.
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	in := lineswap.Buffer{Content: "echo hi", Cursor: 2}
	out, err := c.Exchange(context.Background(), lineswap.ModeAsk, in, testConfig(bin))
	if CodeOf(err) != CodeTransientStorage {
		t.Fatalf("expected code %q, got %v", CodeTransientStorage, err)
	}
	if out.Content != in.Content {
		t.Errorf("expected buffer unchanged, got %q", out.Content)
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Error("assistant was spawned despite slot allocation failure")
	}
}

func TestExchangeLaunchError(t *testing.T) {
	tmp := isolateTempDir(t)
	c := newTestCoordinator(t)

	in := lineswap.Buffer{Content: "echo hi", Cursor: 0}
	out, err := c.Exchange(context.Background(), lineswap.ModeAsk, in,
		testConfig(filepath.Join(t.TempDir(), "no-such-assistant")))
	if CodeOf(err) != CodeLaunch {
		t.Fatalf("expected code %q, got %v", CodeLaunch, err)
	}
	if out.Content != in.Content {
		t.Errorf("expected buffer unchanged, got %q", out.Content)
	}
	if left := slotFiles(t, tmp); len(left) != 0 {
		t.Errorf("expected no leaked slot, found %v", left)
	}
}

func TestExchangeUnconfiguredAssistant(t *testing.T) {
	isolateTempDir(t)
	t.Setenv("LINESWAP_ASSISTANT", "")
	c := newTestCoordinator(t)

	cfg := lineswap.DefaultConfig()
	cfg.Assistant.Bin = ""
	_, err := c.Exchange(context.Background(), lineswap.ModeAsk,
		lineswap.Buffer{Content: "x"}, cfg)
	if CodeOf(err) != CodeLaunch {
		t.Fatalf("expected code %q, got %v", CodeLaunch, err)
	}
}

func TestExchangeCursorClampedWhenBufferShrinks(t *testing.T) {
	isolateTempDir(t)
	bin := writeScript(t, `printf 'ls' > "$file"`)
	c := newTestCoordinator(t)

	out, err := c.Exchange(context.Background(), lineswap.ModeAsk,
		lineswap.Buffer{Content: "0123456789", Cursor: 9}, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "ls" {
		t.Fatalf("expected %q, got %q", "ls", out.Content)
	}
	if out.Cursor != 2 {
		t.Errorf("expected cursor clamped to 2, got %d", out.Cursor)
	}
}

func TestBeginRejectsConcurrentSession(t *testing.T) {
	isolateTempDir(t)
	c := newTestCoordinator(t)
	cfg := testConfig("true")

	s, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "a"}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "b"}, cfg); err == nil {
		t.Error("expected second Begin to fail while session is active")
	}

	if _, err := c.End(s, Result{Status: StatusFailure}); err != nil {
		t.Fatal(err)
	}

	s2, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "c"}, cfg)
	if err != nil {
		t.Fatalf("expected Begin to succeed after End: %v", err)
	}
	c.End(s2, Result{Status: StatusFailure})
}

func TestEndRemovesSlotOnFailurePath(t *testing.T) {
	isolateTempDir(t)
	c := newTestCoordinator(t)

	s, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "abc", Cursor: 1}, testConfig("true"))
	if err != nil {
		t.Fatal(err)
	}
	path := s.SlotPath()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected slot to exist after Begin: %v", err)
	}

	out, err := c.End(s, Result{Status: StatusFailure})
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "abc" || out.Cursor != 1 {
		t.Errorf("expected original buffer, got %+v", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected slot removed after End, stat err = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("expected session back to idle, got %s", s.State())
	}
}

func TestSlotNamesUniqueAcrossConcurrentSessions(t *testing.T) {
	isolateTempDir(t)
	const n = 16

	var mu sync.Mutex
	paths := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Independent shell instances get independent coordinators.
			c := New()
			defer c.Close()

			s, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "same content"}, testConfig("true"))
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			if paths[s.SlotPath()] {
				t.Errorf("slot path %q allocated twice", s.SlotPath())
			}
			paths[s.SlotPath()] = true
			mu.Unlock()

			c.End(s, Result{Status: StatusFailure})
		}()
	}
	wg.Wait()

	if len(paths) != n {
		t.Errorf("expected %d distinct slot paths, got %d", n, len(paths))
	}
}

func TestRunPreservesPartialContentOnFailure(t *testing.T) {
	isolateTempDir(t)
	bin := writeScript(t, `printf 'half-written' > "$file"; exit 1`)
	c := newTestCoordinator(t)

	s, err := c.Begin(lineswap.ModeAsk, lineswap.Buffer{Content: "orig"}, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	res, runErr := c.Run(context.Background(), s)
	if CodeOf(runErr) != CodeRuntime {
		t.Fatalf("expected runtime failure, got %v", runErr)
	}
	// Partial content is carried for diagnostics but must not be committed.
	if !res.ok || res.content != "half-written" {
		t.Errorf("expected best-effort read of partial content, got %+v", res)
	}

	out, err := c.End(s, res)
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "orig" {
		t.Errorf("partial content leaked into buffer: %q", out.Content)
	}
}

func TestExchangePreservesMultilineAndUnicode(t *testing.T) {
	isolateTempDir(t)
	bin := writeScript(t, `exit 0`)
	c := newTestCoordinator(t)

	content := "echo 'héllo wörld'\nls | grep \"x\"\n\ttab\n"
	out, err := c.Exchange(context.Background(), lineswap.ModeAsk,
		lineswap.Buffer{Content: content, Cursor: 5}, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != content {
		t.Errorf("content not preserved byte-for-byte:\nwant %q\ngot  %q", content, out.Content)
	}
}

func TestExchangeEmptyBuffer(t *testing.T) {
	isolateTempDir(t)
	bin := writeScript(t, `printf 'generated' > "$file"`)
	c := newTestCoordinator(t)

	out, err := c.Exchange(context.Background(), lineswap.ModeAsk,
		lineswap.Buffer{}, testConfig(bin))
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "generated" {
		t.Errorf("expected %q, got %q", "generated", out.Content)
	}
}

func TestExchangeSequentialSessionsReuseCoordinator(t *testing.T) {
	isolateTempDir(t)
	bin := writeScript(t, `printf 'ok' > "$file"`)
	c := newTestCoordinator(t)

	for i := 0; i < 3; i++ {
		out, err := c.Exchange(context.Background(), lineswap.ModeAsk,
			lineswap.Buffer{Content: strings.Repeat("x", i+1)}, testConfig(bin))
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if out.Content != "ok" {
			t.Fatalf("round %d: got %q", i, out.Content)
		}
	}
}
