// Command lineswap bridges an interactive shell's edit buffer to an
// external assistant binary.
//
// Usage:
//
//	lineswap init <shell>      print the integration snippet for a shell
//	lineswap exchange          run one buffer exchange (buffer on stdin,
//	                           committed buffer on stdout)
//	lineswap version           print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	lineswap "github.com/lineswap/lineswap"
	"github.com/lineswap/lineswap/exchange"
	"github.com/lineswap/lineswap/snippets"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// exitCancelled mirrors the conventional 128+SIGINT status so the shell
// snippet treats an interrupted exchange as "keep the original buffer".
const exitCancelled = 130

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], stdout)
	case "exchange":
		return runExchange(args[1:], stdin, stdout)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "lineswap", Version)
		return 0
	case "-h", "-help", "--help", "help":
		usage()
		return 0
	}

	fmt.Fprintf(os.Stderr, "lineswap: unknown command %q\n", args[0])
	usage()
	return 2
}

func usage() {
	fmt.Fprint(os.Stderr, `usage:
  lineswap init <shell>    print the integration snippet (bash, zsh, fish, nushell, powershell)
  lineswap exchange        run one buffer exchange; reads the buffer from stdin
  lineswap version         print version
`)
}

func runInit(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	bin := fs.String("bin", "", "lineswap binary embedded in the snippet (default: this executable)")
	askKey := fs.String("ask-key", "", "key binding for ask mode, in the target shell's syntax")
	explainKey := fs.String("explain-key", "", "key binding for explain mode, in the target shell's syntax")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "lineswap: init needs exactly one shell name")
		return 2
	}

	shell, err := snippets.ParseShell(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lineswap: %v\n", err)
		return 2
	}

	binPath := *bin
	if binPath == "" {
		exe, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "lineswap: cannot locate own executable: %v\n", err)
			return 1
		}
		binPath = exe
	}

	snippet, err := snippets.Render(shell, snippets.Options{
		BinPath:    binPath,
		AskKey:     *askKey,
		ExplainKey: *explainKey,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lineswap: %v\n", err)
		return 1
	}

	io.WriteString(stdout, snippet)
	return 0
}

func runExchange(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("exchange", flag.ContinueOnError)
	modeName := fs.String("mode", "ask", "assistant mode: ask or explain")
	cursor := fs.Int("cursor", 0, "cursor offset into the buffer")
	verbose := fs.Bool("verbose", false, "log session details to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := lineswap.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lineswap: %v\n", err)
		return 2
	}

	cfg, err := lineswap.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = lineswap.DefaultConfig()
	}
	for _, w := range lineswap.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lineswap: read buffer: %v\n", err)
		return 1
	}
	buf := lineswap.Buffer{Content: string(data), Cursor: *cursor}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := exchange.New()
	defer coord.Close()

	out, err := coord.Exchange(ctx, mode, buf, cfg)
	if err != nil {
		if exchange.IsCancelled(err) {
			// A cancelled exchange is a no-op, not an error; the shell
			// keeps its original buffer.
			return exitCancelled
		}
		fmt.Fprintf(os.Stderr, "lineswap: %v\n", err)
		return 1
	}

	io.WriteString(stdout, out.Content)
	return 0
}
