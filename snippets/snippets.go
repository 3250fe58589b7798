// Package snippets renders the shell integration snippets that bind keys to
// the lineswap exchange. Each snippet captures the live edit buffer, pipes
// it through `lineswap exchange`, and adopts the output as the new buffer
// only when the exchange reports success.
package snippets

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed assets/*.tmpl
var assetsFS embed.FS

var templates = template.Must(template.ParseFS(assetsFS, "assets/*.tmpl"))

// Shell identifies a supported interactive shell.
type Shell string

const (
	Bash       Shell = "bash"
	Zsh        Shell = "zsh"
	Fish       Shell = "fish"
	Nushell    Shell = "nushell"
	PowerShell Shell = "powershell"
)

// Shells lists the supported shells in display order.
func Shells() []Shell {
	return []Shell{Bash, Zsh, Fish, Nushell, PowerShell}
}

// ParseShell maps a user-supplied name to a Shell, accepting the common
// aliases "nu" and "pwsh".
func ParseShell(name string) (Shell, error) {
	switch strings.ToLower(name) {
	case "bash":
		return Bash, nil
	case "zsh":
		return Zsh, nil
	case "fish":
		return Fish, nil
	case "nushell", "nu":
		return Nushell, nil
	case "powershell", "pwsh":
		return PowerShell, nil
	}
	return "", fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, nushell, powershell)", name)
}

// Options configures snippet rendering.
type Options struct {
	// BinPath is the lineswap binary the snippet invokes. Required.
	BinPath string
	// AskKey and ExplainKey override the default key bindings. They are
	// inserted verbatim and must use the target shell's binding syntax.
	AskKey     string
	ExplainKey string
}

// defaultKeys holds the {ask, explain} bindings per shell, in each shell's
// own binding syntax. Ask is Ctrl-O, explain is Alt-E everywhere.
var defaultKeys = map[Shell][2]string{
	Bash:       {`\C-o`, `\ee`},
	Zsh:        {`^o`, `^[e`},
	Fish:       {`\co`, `\ee`},
	Nushell:    {`char_o`, `char_e`},
	PowerShell: {`Ctrl+o`, `Alt+e`},
}

type templateData struct {
	// Bin is the binary path, already quoted for the target shell.
	Bin        string
	AskKey     string
	ExplainKey string
}

// Render returns the integration snippet for the given shell.
func Render(shell Shell, opts Options) (string, error) {
	if opts.BinPath == "" {
		return "", fmt.Errorf("snippets: BinPath is required")
	}

	tmpl := templates.Lookup(string(shell) + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("unsupported shell %q", shell)
	}

	bin, err := quoteFor(shell, opts.BinPath)
	if err != nil {
		return "", fmt.Errorf("quote binary path: %w", err)
	}

	keys := defaultKeys[shell]
	data := templateData{
		Bin:        bin,
		AskKey:     keys[0],
		ExplainKey: keys[1],
	}
	if opts.AskKey != "" {
		data.AskKey = opts.AskKey
	}
	if opts.ExplainKey != "" {
		data.ExplainKey = opts.ExplainKey
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s snippet: %w", shell, err)
	}
	return sb.String(), nil
}
