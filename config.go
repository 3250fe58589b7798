package lineswap

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	defaults "github.com/lineswap/lineswap/default"
)

// Config is the explicit configuration passed into an exchange session.
// Nothing in the exchange path reads ambient shell variables; environment
// overrides are resolved once, here, by the Resolve* helpers.
type Config struct {
	Version   int             `toml:"version"`
	Assistant AssistantConfig `toml:"assistant"`
	Hints     HintsConfig     `toml:"hints"`
	Context   ContextConfig   `toml:"context"`
}

// AssistantConfig identifies the external assistant invocation target.
type AssistantConfig struct {
	// Bin is the assistant binary name or path.
	Bin string `toml:"bin"`
	// Model is the model identifier passed to the assistant verbatim.
	Model string `toml:"model"`
}

// HintsConfig holds optional hints forwarded to the assistant.
type HintsConfig struct {
	// Shell is the host shell name (bash, zsh, fish, nushell, powershell, or other).
	Shell string `toml:"shell"`
	// OS is a free-form operating system hint. Empty means runtime.GOOS.
	OS string `toml:"os"`
}

// ContextConfig selects which optional context the assistant receives.
// Everything defaults to disabled.
type ContextConfig struct {
	// Pwd forwards the working directory flag.
	Pwd bool `toml:"pwd"`
	// Depth is the directory-listing depth; 0 disables the listing.
	Depth int `toml:"depth"`
	// Environment lists environment variable names to mention. Only names
	// are forwarded, never values.
	Environment []string `toml:"environment"`
	// Programs forwards the list of executables available on PATH.
	Programs bool `toml:"programs"`
}

// ConfigDir returns the config directory path.
// Resolution order: $LINESWAP_CONFIG_DIR > $XDG_CONFIG_HOME/lineswap > ~/.config/lineswap
func ConfigDir() string {
	if dir := os.Getenv("LINESWAP_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lineswap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "lineswap-config")
	}
	return filepath.Join(home, ".config", "lineswap")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded
// default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(string(defaults.DefaultConfigTOML), &cfg); err != nil {
		panic("lineswap: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Assistant.Bin == "" {
		cfg.Assistant.Bin = defaults.Assistant.Bin
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = defaults.Assistant.Model
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if ResolveAssistantBin(cfg) == "" {
		warnings = append(warnings, "assistant binary is not configured; set assistant.bin or LINESWAP_ASSISTANT")
	}
	if cfg.Context.Depth < 0 {
		warnings = append(warnings, "context depth is negative; directory listing will be disabled")
	}
	switch cfg.Hints.Shell {
	case "", "bash", "zsh", "fish", "nushell", "powershell", "other":
	default:
		warnings = append(warnings, "unrecognized shell hint "+cfg.Hints.Shell+"; the assistant will treat it as free-form")
	}
	return warnings
}

// ResolveAssistantBin returns the assistant binary.
// Priority: $LINESWAP_ASSISTANT env > config value.
func ResolveAssistantBin(cfg *Config) string {
	if bin := os.Getenv("LINESWAP_ASSISTANT"); bin != "" {
		return bin
	}
	if cfg != nil {
		return cfg.Assistant.Bin
	}
	return ""
}

// ResolveModel returns the model identifier.
// Priority: $LINESWAP_MODEL env > config value.
func ResolveModel(cfg *Config) string {
	if model := os.Getenv("LINESWAP_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Assistant.Model
	}
	return ""
}

// ResolveShellHint returns the shell hint.
// Priority: $LINESWAP_SHELL env > config value.
func ResolveShellHint(cfg *Config) string {
	if shell := os.Getenv("LINESWAP_SHELL"); shell != "" {
		return shell
	}
	if cfg != nil {
		return cfg.Hints.Shell
	}
	return ""
}

// ResolveOSHint returns the operating system hint.
// Priority: $LINESWAP_OS env > config value > runtime.GOOS.
func ResolveOSHint(cfg *Config) string {
	if osHint := os.Getenv("LINESWAP_OS"); osHint != "" {
		return osHint
	}
	if cfg != nil && cfg.Hints.OS != "" {
		return cfg.Hints.OS
	}
	return runtime.GOOS
}
