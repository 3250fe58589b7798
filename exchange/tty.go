package exchange

import (
	"os"
	"os/exec"

	"golang.org/x/term"
)

// attachTerminal wires the assistant's stdio. The shell integration invokes
// lineswap under command substitution, so our stdin carries the buffer and
// our stdout is captured; the assistant's interactive UI must talk to the
// controlling terminal instead. The returned func releases the tty handle
// and must be called after the process has finished.
func attachTerminal(cmd *exec.Cmd) func() {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return func() {}
	}

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		// No terminal available (tests, detached invocation). The
		// assistant still gets stderr for diagnostics; stdin and stdout
		// fall back to the null device.
		cmd.Stderr = os.Stderr
		return func() {}
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = os.Stderr
	return func() { tty.Close() }
}
