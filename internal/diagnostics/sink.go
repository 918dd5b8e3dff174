package diagnostics

import (
	"fmt"
	"sync"

	"github.com/funvibe/dsema/internal/ast"
)

type Severity int

const (
	SeverityVerbose Severity = iota
	SeverityWarning
	SeverityError
	// SeveritySilent is a printer level only; no diagnostic carries it.
	SeveritySilent
)

// LevelSeverity maps a log_level option to the lowest severity printed.
func LevelSeverity(level string) Severity {
	switch level {
	case "silent":
		return SeveritySilent
	case "error":
		return SeverityError
	case "verbose":
		return SeverityVerbose
	}
	return SeverityWarning
}

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityWarning:
		return "warning"
	case SeveritySilent:
		return "silent"
	}
	return "error"
}

// Diagnostic is an advisory message produced during resolution. Resolution
// continues after reporting one.
type Diagnostic struct {
	Code       ErrorCode
	Severity   Severity
	Message    string
	Node       ast.Node
	Candidates int
}

func (d Diagnostic) String() string {
	if d.Node != nil {
		loc := d.Node.Start()
		file := ""
		if m := d.Node.Module(); m != nil {
			file = m.FilePath
		}
		return fmt.Sprintf("%s:%d:%d: [%s] %s", file, loc.Line, loc.Column, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Sink receives soft errors.
type Sink interface {
	Report(d Diagnostic)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Discard drops every diagnostic.
var Discard Sink = discard{}

// Collector buffers diagnostics; safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Has reports whether a diagnostic with code was collected.
func (c *Collector) Has(code ErrorCode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.Code == code {
			return true
		}
	}
	return false
}

func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
