// Package engine is the embedding API of the semantic engine: load a source
// tree once, then answer type and value queries against a pinned snapshot.
package engine

import (
	"context"
	"io/fs"
	"log"

	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/modules"
	"github.com/google/uuid"
)

// Engine owns the module cache. Loading installs a new cache generation;
// sessions created earlier keep answering from the generation they were
// created on.
type Engine struct {
	opts   *config.Options
	loader *modules.Loader
	cache  *modules.Cache
}

// New creates an engine. A nil opts uses config.Default().
func New(opts *config.Options) *Engine {
	if opts == nil {
		opts = config.Default()
	}
	return &Engine{
		opts:   opts,
		loader: modules.NewLoader(opts),
		cache:  modules.NewCache(),
	}
}

func (e *Engine) Options() *config.Options { return e.opts }

// Snapshot returns the current cache generation.
func (e *Engine) Snapshot() *modules.Snapshot { return e.cache.Snapshot() }

// Load parses every source file of fsys and installs the result.
func (e *Engine) Load(ctx context.Context, fsys fs.FS) (*modules.Snapshot, error) {
	snap, err := e.loader.Load(ctx, e.cache, fsys)
	if err != nil {
		return nil, err
	}
	e.tracef("loaded generation %d: %d modules", snap.Generation, len(snap.Entries()))
	return snap, nil
}

// LoadDir loads the source tree rooted at dir.
func (e *Engine) LoadDir(ctx context.Context, dir string) (*modules.Snapshot, error) {
	mods, fsys, err := e.loader.LoadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	return e.install(mods, fsys), nil
}

// LoadArchive loads the files of a txtar archive.
func (e *Engine) LoadArchive(ctx context.Context, data []byte) (*modules.Snapshot, error) {
	mods, fsys, err := e.loader.LoadArchive(ctx, data)
	if err != nil {
		return nil, err
	}
	return e.install(mods, fsys), nil
}

func (e *Engine) install(mods []*modules.Module, fsys fs.FS) *modules.Snapshot {
	snap := e.loader.Install(e.cache, mods, fsys)
	e.tracef("loaded generation %d: %d modules", snap.Generation, len(snap.Entries()))
	return snap
}

// Update re-parses one file and installs it over the current generation.
func (e *Engine) Update(relPath, src string) (*modules.Module, *modules.Snapshot) {
	mod := e.loader.ParseSource(relPath, src)
	if e.cache.Snapshot().Generation == 0 {
		// Nothing loaded yet: start from the built-in root module.
		e.loader.Install(e.cache, nil, nil)
	}
	snap := e.cache.Update(mod)
	e.tracef("updated %s (%s): generation %d", mod.Name, relPath, snap.Generation)
	return mod, snap
}

// Session starts a session on the current generation.
func (e *Engine) Session() *Session {
	return NewSession(e.cache.Snapshot(), e.opts)
}

func (e *Engine) tracef(format string, args ...interface{}) {
	if e.opts.LogLevel == "verbose" {
		log.Printf(format, args...)
	}
}

// newID is replaced in tests that need stable ids.
var newID = uuid.New
