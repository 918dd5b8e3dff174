package modules

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/funvibe/dsema/internal/config"
	"github.com/kr/pretty"
)

const fixture = `
-- std/stdio.d --
module std.stdio;
void writeln(string s);
-- app/main.d --
import std.stdio;
int answer = 42;
-- app/broken.d --
int x = ;
-- views/greeting.txt --
hello
-- notes.md --
not a source file
`

func loadFixture(t *testing.T) (*Loader, *Snapshot) {
	t.Helper()
	l := NewLoader(config.Default())
	mods, fsys, err := l.LoadArchive(context.Background(), []byte(fixture))
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	return l, l.Install(NewCache(), mods, fsys)
}

func TestLoadArchive(t *testing.T) {
	_, snap := loadFixture(t)

	var names []string
	for _, m := range snap.All() {
		names = append(names, m.Name())
	}
	want := []string{"app.broken", "app.main", "object", "std.stdio"}
	if diff := pretty.Diff(names, want); len(diff) > 0 {
		t.Errorf("module names differ: %v", diff)
	}

	if snap.ByName("std.stdio") == nil {
		t.Error("ByName(std.stdio) = nil")
	}
	if m := snap.ByFile("app/main.d"); m == nil || m.Name() != "app.main" {
		t.Errorf("ByFile(app/main.d) = %v", m)
	}
	if !snap.IsPackage("std") || !snap.IsPackage("app") || snap.IsPackage("std.stdio") {
		t.Error("package prefixes are wrong")
	}

	broken, _ := snap.Entry("app.broken")
	if !broken.HasErrors() {
		t.Error("syntax error in app/broken.d was not recorded")
	}
	main, _ := snap.Entry("app.main")
	if imps := main.Imports(); len(imps) != 1 || imps[0] != "std.stdio" {
		t.Errorf("imports = %v", imps)
	}
	root, _ := snap.Entry("object")
	if !root.IsVirtual || root.HasErrors() {
		t.Errorf("virtual root: virtual=%v errors=%v", root.IsVirtual, root.Errors)
	}
}

func TestCacheGenerations(t *testing.T) {
	l := NewLoader(nil)
	cache := NewCache()
	first := cache.Replace([]*Module{l.ParseSource("a.d", "int x;")}, nil)
	pinned := cache.Snapshot()

	second := cache.Update(l.ParseSource("b.d", "int y;"))
	if second.Generation != first.Generation+1 {
		t.Errorf("generation = %d, want %d", second.Generation, first.Generation+1)
	}
	if len(pinned.All()) != 1 {
		t.Errorf("pinned snapshot changed: %d modules", len(pinned.All()))
	}
	if len(cache.Snapshot().All()) != 2 {
		t.Errorf("current snapshot has %d modules, want 2", len(cache.Snapshot().All()))
	}

	third := cache.Update(l.ParseSource("a.d", "int z;"))
	a := third.ByName("a")
	if a == nil || a.Members[0].Name() != "z" {
		t.Error("Update did not replace module a")
	}
}

func TestModuleNameFromPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"std/stdio.d", "std.stdio"},
		{"./main.d", "main"},
		{"pkg/package.d", "pkg"},
		{"a/b/c.di", "a.b.c"},
	}
	for _, tt := range tests {
		if got := ModuleNameFromPath(tt.in); got != tt.want {
			t.Errorf("ModuleNameFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnapshotReadFile(t *testing.T) {
	_, snap := loadFixture(t)

	data, err := snap.ReadFile("views/greeting.txt")
	if err != nil || string(data) != "hello\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if _, err := snap.ReadFile("views/missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}
