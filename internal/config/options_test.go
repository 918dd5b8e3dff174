package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		content      string
		rootModule   string
		constantOnly bool
		depth        int
		importPaths  int
	}{
		{
			name:         "defaults",
			path:         "dsema.yaml",
			content:      "",
			rootModule:   "object",
			constantOnly: true,
			depth:        500,
		},
		{
			name: "yaml",
			path: "dsema.yaml",
			content: `root_module: core.object
string_import_paths: [views, assets]
constant_only: false
max_eval_depth: 64
`,
			rootModule:   "core.object",
			constantOnly: false,
			depth:        64,
			importPaths:  2,
		},
		{
			name: "toml",
			path: "dsema.toml",
			content: `root_module = "rt"
string_import_paths = ["views"]
constant_only = true
max_eval_depth = 10
log_level = "verbose"
`,
			rootModule:   "rt",
			constantOnly: true,
			depth:        10,
			importPaths:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseOptions([]byte(tt.content), tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.RootModule != tt.rootModule {
				t.Errorf("RootModule = %q, want %q", opts.RootModule, tt.rootModule)
			}
			if opts.IsConstantOnly() != tt.constantOnly {
				t.Errorf("IsConstantOnly = %v, want %v", opts.IsConstantOnly(), tt.constantOnly)
			}
			if opts.MaxEvalDepth != tt.depth {
				t.Errorf("MaxEvalDepth = %d, want %d", opts.MaxEvalDepth, tt.depth)
			}
			if len(opts.StringImportPaths) != tt.importPaths {
				t.Errorf("StringImportPaths = %v", opts.StringImportPaths)
			}
			if !opts.IsSourceFile("a/b.d") || opts.IsSourceFile("a/b.go") {
				t.Error("default source extensions not applied")
			}
		})
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		wantErr string
	}{
		{"bad level", "dsema.yaml", "log_level: loud\n", "log_level"},
		{"bad color", "dsema.yaml", "color: pink\n", "color"},
		{"negative depth", "dsema.toml", "max_eval_depth = -1\n", "max_eval_depth"},
		{"bad extension", "dsema.yaml", "source_extensions: [d]\n", "source_extensions[0]"},
		{"bad root", "dsema.yaml", "root_module: a/b\n", "root_module"},
		{"bad format", "dsema.json", "{}", "unsupported"},
		{"bad yaml", "dsema.yaml", "root_module: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tt.content), tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindOptionsWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindOptions(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		// An option file above the temp dir would make the lookup ambiguous.
		t.Skipf("found unrelated option file %s", path)
	}

	want := filepath.Join(root, "dsema.toml")
	if err := os.WriteFile(want, []byte("max_eval_depth = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, path, err := Resolve(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != want {
		t.Errorf("found %q, want %q", path, want)
	}
	if opts.MaxEvalDepth != 7 {
		t.Errorf("MaxEvalDepth = %d, want 7", opts.MaxEvalDepth)
	}
}
