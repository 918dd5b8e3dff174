package diagnostics

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Report(Diagnostic{Code: ErrR001, Severity: SeverityWarning, Message: "no candidates"})
		}()
	}
	wg.Wait()
	if n := len(c.Diagnostics()); n != 8 {
		t.Errorf("collected %d diagnostics, want 8", n)
	}
	if !c.Has(ErrR001) || c.Has(ErrR002) {
		t.Errorf("Has: R001=%v R002=%v", c.Has(ErrR001), c.Has(ErrR002))
	}
	c.Reset()
	if len(c.Diagnostics()) != 0 {
		t.Errorf("diagnostics after Reset")
	}
}

func TestLevelSeverity(t *testing.T) {
	tests := []struct {
		level string
		want  Severity
	}{
		{"silent", SeveritySilent},
		{"error", SeverityError},
		{"warning", SeverityWarning},
		{"verbose", SeverityVerbose},
		{"", SeverityWarning},
	}
	for _, tt := range tests {
		if got := LevelSeverity(tt.level); got != tt.want {
			t.Errorf("LevelSeverity(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestPrinter(t *testing.T) {
	warn := Diagnostic{Code: ErrR002, Severity: SeverityWarning, Message: "f is ambiguous: 2 candidates"}
	fatal := Diagnostic{Code: ErrR003, Severity: SeverityError, Message: "alias cycle"}

	tests := []struct {
		level Severity
		want  []string
		skip  []string
	}{
		{SeverityVerbose, []string{"R002", "R003"}, nil},
		{SeverityError, []string{"R003"}, []string{"R002"}},
		{SeveritySilent, nil, []string{"R002", "R003"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		p := NewPrinter(&buf, "never", tt.level)
		p.Report(warn)
		p.Report(fatal)
		out := buf.String()
		for _, w := range tt.want {
			if !strings.Contains(out, w) {
				t.Errorf("level %v: output %q misses %s", tt.level, out, w)
			}
		}
		for _, s := range tt.skip {
			if strings.Contains(out, s) {
				t.Errorf("level %v: output %q shows %s", tt.level, out, s)
			}
		}
		if strings.Contains(out, "\x1b[") {
			t.Errorf("colour disabled but output has escape codes: %q", out)
		}
	}

	var buf bytes.Buffer
	NewPrinter(&buf, "never", SeverityError).PrintError("Load Error", errors.New("boom"))
	if got := buf.String(); got != "Load Error boom\n" {
		t.Errorf("PrintError = %q", got)
	}
}
