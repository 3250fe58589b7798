package exchange

import (
	"context"
	"strconv"
	"strings"

	lineswap "github.com/lineswap/lineswap"
	"github.com/lineswap/lineswap/contextinfo"
)

// buildArgs assembles the assistant's invocation parameters. Everything the
// assistant needs is passed explicitly on the command line; it inherits no
// hidden configuration from the shell.
func (c *Coordinator) buildArgs(ctx context.Context, s *Session) []string {
	cfg := s.config

	args := []string{
		string(s.mode),
		"--model", lineswap.ResolveModel(cfg),
		"--edit-file", s.slot.path,
	}

	var cc lineswap.ContextConfig
	if cfg != nil {
		cc = cfg.Context
	}
	if cc.Pwd {
		args = append(args, "--pwd")
	}
	if cc.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(cc.Depth))
	}
	if names := contextinfo.EnvironmentNames(cc.Environment); len(names) > 0 {
		args = append(args, "--environment", strings.Join(names, ","))
	}
	// The program list only informs command generation, not explanation.
	if s.mode == lineswap.ModeAsk && cc.Programs {
		if progs := c.programs.Programs(ctx); len(progs) > 0 {
			args = append(args, "--programs", strings.Join(progs, ","))
		}
	}

	if hint := lineswap.ResolveShellHint(cfg); hint != "" {
		args = append(args, "--shell", hint)
	}
	if hint := lineswap.ResolveOSHint(cfg); hint != "" {
		args = append(args, "--os", hint)
	}

	return args
}
