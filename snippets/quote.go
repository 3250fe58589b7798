package snippets

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// quoteFor quotes s as a single word for the target shell.
func quoteFor(shell Shell, s string) (string, error) {
	switch shell {
	case Bash, Zsh:
		return quotePOSIX(s)
	case Fish:
		return quoteFish(s), nil
	case Nushell:
		return quoteNu(s), nil
	case PowerShell:
		return quotePwsh(s), nil
	}
	return "", fmt.Errorf("no quoting rule for shell %q", shell)
}

// quotePOSIX quotes for the POSIX-family shells. zsh accepts the same quoted
// forms bash does, so one quoter covers both.
func quotePOSIX(s string) (string, error) {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", err
	}
	return quoted, nil
}

// quoteFish quotes for fish. Inside fish single quotes only backslash and
// the quote itself are special, each escaped with a backslash.
func quoteFish(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// quoteNu quotes for nushell. Plain double-quoted strings do not
// interpolate; backslash and the quote are escaped.
func quoteNu(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// quotePwsh quotes for PowerShell. Single-quoted strings are literal; an
// embedded quote doubles.
func quotePwsh(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
