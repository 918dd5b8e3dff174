package modules

import (
	"io/fs"
	"sort"
	"sync"

	"github.com/funvibe/dsema/internal/ast"
)

// Snapshot is one read-only generation of the module cache. Resolution
// calls are pinned to a snapshot so a concurrent Replace does not affect
// them.
type Snapshot struct {
	Generation int

	modules  []*Module
	byName   map[string]*Module
	byFile   map[string]*Module
	packages map[string]bool
	fsys     fs.FS
}

func newSnapshot(gen int, mods []*Module, fsys fs.FS) *Snapshot {
	s := &Snapshot{
		Generation: gen,
		byName:     make(map[string]*Module),
		byFile:     make(map[string]*Module),
		packages:   make(map[string]bool),
		fsys:       fsys,
	}
	for _, m := range mods {
		if m == nil || m.AST == nil {
			continue
		}
		// First module wins on duplicate names; callers see the duplicate
		// through Duplicates.
		if _, dup := s.byName[m.Name]; !dup {
			s.byName[m.Name] = m
		}
		if m.Path != "" {
			s.byFile[m.Path] = m
		}
		for _, p := range packagePrefixes(m.Name) {
			s.packages[p] = true
		}
		s.modules = append(s.modules, m)
	}
	sort.SliceStable(s.modules, func(i, j int) bool { return s.modules[i].Name < s.modules[j].Name })
	return s
}

// All returns every module's syntax tree, ordered by module name.
func (s *Snapshot) All() []*ast.Module {
	out := make([]*ast.Module, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m.AST)
	}
	return out
}

// ByName looks a module up by its dotted name.
func (s *Snapshot) ByName(name string) *ast.Module {
	if m, ok := s.byName[name]; ok {
		return m.AST
	}
	return nil
}

// ByFile looks a module up by its path inside the loaded file system.
func (s *Snapshot) ByFile(path string) *ast.Module {
	if m, ok := s.byFile[path]; ok {
		return m.AST
	}
	return nil
}

// IsPackage reports whether name is a proper prefix of some module name.
func (s *Snapshot) IsPackage(name string) bool { return s.packages[name] }

// Entries returns the cache entries with their load metadata.
func (s *Snapshot) Entries() []*Module { return s.modules }

// Entry returns the cache entry for a module name.
func (s *Snapshot) Entry(name string) (*Module, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// Duplicates lists module names declared by more than one file.
func (s *Snapshot) Duplicates() []string {
	seen := make(map[string]int)
	for _, m := range s.modules {
		seen[m.Name]++
	}
	var out []string
	for name, n := range seen {
		if n > 1 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ReadFile reads a file from the file system the snapshot was loaded from.
func (s *Snapshot) ReadFile(name string) ([]byte, error) {
	if s.fsys == nil {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(s.fsys, name)
}

// Cache holds the current snapshot. Replace installs a new generation;
// readers keep whatever snapshot they already hold.
type Cache struct {
	mu      sync.Mutex
	current *Snapshot
	gen     int
}

func NewCache() *Cache {
	return &Cache{current: newSnapshot(0, nil, nil)}
}

// Snapshot returns the current generation.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Replace installs mods as the next generation and returns it.
func (c *Cache) Replace(mods []*Module, fsys fs.FS) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = newSnapshot(c.gen, mods, fsys)
	return c.current
}

// Update replaces a single module, keeping the others of the current
// generation.
func (c *Cache) Update(mod *Module) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	mods := make([]*Module, 0, len(c.current.modules)+1)
	for _, m := range c.current.modules {
		if m.Name == mod.Name || (mod.Path != "" && m.Path == mod.Path) {
			continue
		}
		mods = append(mods, m)
	}
	mods = append(mods, mod)
	c.gen++
	c.current = newSnapshot(c.gen, mods, c.current.fsys)
	return c.current
}
