// Package contextinfo resolves the optional context forwarded to the
// assistant as explicit invocation parameters: environment variable names
// and the list of programs available on PATH.
package contextinfo

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	programTTL = 10 * time.Minute
	// maxPrograms caps the list so the assistant argv stays bounded.
	maxPrograms = 1024
)

// ProgramIndex caches the names of executables found on PATH. A scan
// touches every bin directory, so results are held in a TTL cache keyed by
// the PATH value itself; changing PATH invalidates naturally.
type ProgramIndex struct {
	cache *ttlcache.Cache[string, []string]
}

// NewProgramIndex creates a new ProgramIndex with TTL-based expiration.
func NewProgramIndex() *ProgramIndex {
	c := ttlcache.New[string, []string](
		ttlcache.WithTTL[string, []string](programTTL),
		ttlcache.WithDisableTouchOnHit[string, []string](),
	)
	go c.Start()
	return &ProgramIndex{cache: c}
}

// Close stops the cache expiration loop.
func (p *ProgramIndex) Close() {
	p.cache.Stop()
}

// Programs returns the sorted, deduplicated names of executables on PATH.
func (p *ProgramIndex) Programs(ctx context.Context) []string {
	pathEnv := os.Getenv("PATH")
	if item := p.cache.Get(pathEnv); item != nil {
		return item.Value()
	}

	progs := scanPath(ctx, pathEnv)
	p.cache.Set(pathEnv, progs, ttlcache.DefaultTTL)

	slog.Debug("scanned PATH for programs", "count", len(progs))
	return progs
}

func scanPath(ctx context.Context, pathEnv string) []string {
	seen := make(map[string]bool)
	var names []string

	for _, dir := range filepath.SplitList(pathEnv) {
		if ctx.Err() != nil {
			break
		}
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || seen[name] {
				continue
			}
			info, err := e.Info()
			if err != nil || info.Mode()&0111 == 0 {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	sort.Strings(names)
	if len(names) > maxPrograms {
		names = names[:maxPrograms]
	}
	return names
}
