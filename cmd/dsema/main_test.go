package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mainSource = `module app.main;

enum int N = 4;
int counter = 3;

struct S
{
    int field;
    int y(int a, int b);
}
S s;

int square(int x) { return x * x; }
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun(t *testing.T) {
	t.Chdir(writeTree(t, map[string]string{"app/main.d": mainSource}))

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    string
		wantStderr string
	}{
		{"type", []string{"type", "s.y(1, 2)"}, exitOK, "int", ""},
		{"eval", []string{"eval", "square(N)"}, exitOK, "16", ""},
		{"eval string", []string{"eval", `"a" ~ "b"`}, exitOK, `"ab"`, ""},
		{"not constant", []string{"eval", "counter + 1"}, exitFailure, "", "not a compile-time constant"},
		{"unresolved", []string{"type", "missing"}, exitFailure, "", "R001"},
		{"members", []string{"members", "s"}, exitOK, "field", ""},
		{"modules", []string{"modules"}, exitOK, "1 source module", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errb bytes.Buffer
			code := run(append([]string{"dsema"}, tt.args...), &out, &errb)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstdout:\n%s\nstderr:\n%s", code, tt.wantCode, out.String(), errb.String())
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", out.String(), tt.wantOut)
			}
			if !strings.Contains(errb.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", errb.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunOptionsFile(t *testing.T) {
	t.Chdir(writeTree(t, map[string]string{
		"app/main.d": mainSource,
		"dsema.toml": "log_level = \"silent\"\n",
	}))
	var out, errb bytes.Buffer
	if code := run([]string{"dsema", "type", "missing"}, &out, &errb); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if errb.Len() != 0 {
		t.Errorf("silent run printed %q", errb.String())
	}
}

func TestRunSyntaxErrors(t *testing.T) {
	t.Chdir(writeTree(t, map[string]string{
		"app/main.d": mainSource,
		"app/bad.d":  "module app.bad;\nint = ;\n",
	}))
	var out, errb bytes.Buffer
	if code := run([]string{"dsema", "modules"}, &out, &errb); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out.String(), "app.bad") {
		t.Errorf("modules table misses app.bad:\n%s", out.String())
	}
	if !strings.Contains(errb.String(), "Syntax Error") {
		t.Errorf("stderr = %q, want a syntax error", errb.String())
	}
}
