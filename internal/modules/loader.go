package modules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/lexer"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/pipeline"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"
)

// Loader parses source files into cache modules.
type Loader struct {
	Options *config.Options
	// Workers bounds concurrent parsing; 0 means GOMAXPROCS.
	Workers int

	pipeline *pipeline.Pipeline
}

func NewLoader(opts *config.Options) *Loader {
	if opts == nil {
		opts = config.Default()
	}
	return &Loader{
		Options:  opts,
		pipeline: pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}),
	}
}

// ParseSource runs one file through the lexer and parser. relPath names the
// file inside its file system and provides the default module name.
func (l *Loader) ParseSource(relPath, src string) *Module {
	ctx := &pipeline.PipelineContext{
		SourceCode:        src,
		FilePath:          relPath,
		DefaultModuleName: ModuleNameFromPath(relPath),
	}
	ctx = l.pipeline.Run(ctx)
	return &Module{
		Name:   ctx.AstRoot.Name(),
		Path:   relPath,
		AST:    ctx.AstRoot,
		Errors: ctx.Errors,
		Size:   len(src),
	}
}

// sourceFiles lists the source files of fsys in lexical order.
func (l *Loader) sourceFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if l.Options.IsSourceFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking sources: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadFS parses every source file of fsys concurrently. Syntax errors stay
// attached to their modules; only I/O failures abort the load.
func (l *Loader) LoadFS(ctx context.Context, fsys fs.FS) ([]*Module, error) {
	files, err := l.sourceFiles(fsys)
	if err != nil {
		return nil, err
	}

	mods := make([]*Module, len(files))
	g, ctx := errgroup.WithContext(ctx)
	workers := l.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			mods[i] = l.ParseSource(file, string(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mods, nil
}

// LoadDir loads the source tree rooted at dir.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Module, fs.FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", dir)
	}
	fsys := os.DirFS(dir)
	mods, err := l.LoadFS(ctx, fsys)
	return mods, fsys, err
}

// LoadArchive loads the files of a txtar archive.
func (l *Loader) LoadArchive(ctx context.Context, data []byte) ([]*Module, fs.FS, error) {
	fsys, err := txtar.FS(txtar.Parse(data))
	if err != nil {
		return nil, nil, fmt.Errorf("reading archive: %w", err)
	}
	mods, err := l.LoadFS(ctx, fsys)
	return mods, fsys, err
}

// Install adds the built-in root module when the sources do not provide one
// and installs the result as the cache's next generation.
func (l *Loader) Install(cache *Cache, mods []*Module, fsys fs.FS) *Snapshot {
	root := l.Options.RootModule
	found := false
	for _, m := range mods {
		if m.Name == root {
			found = true
			break
		}
	}
	if !found {
		mods = append(mods, l.virtualRoot(root))
	}
	return cache.Replace(mods, fsys)
}

// Load reads fsys and installs it into cache in one step.
func (l *Loader) Load(ctx context.Context, cache *Cache, fsys fs.FS) (*Snapshot, error) {
	mods, err := l.LoadFS(ctx, fsys)
	if err != nil {
		return nil, err
	}
	return l.Install(cache, mods, fsys), nil
}
