package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

var (
	WarnColorFG  = pterm.FgYellow
	WarnStyleBG  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG = pterm.FgRed
	ErrorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG  = pterm.FgLightGreen
	InfoStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
)

// Printer renders diagnostics to a terminal. It is a Sink.
type Printer struct {
	out   io.Writer
	color bool
	level Severity
	mu    sync.Mutex
}

// NewPrinter creates a printer; colorMode is "auto", "always" or "never".
// Diagnostics below level are dropped.
func NewPrinter(out io.Writer, colorMode string, level Severity) *Printer {
	color := false
	switch colorMode {
	case "always":
		color = true
	case "auto", "":
		if f, ok := out.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	return &Printer{out: out, color: color, level: level}
}

func (p *Printer) paint(style *pterm.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Sprint(s)
}

func (p *Printer) tint(c pterm.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) Report(d Diagnostic) {
	if d.Severity < p.level {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch d.Severity {
	case SeverityError:
		fmt.Fprintln(p.out, p.paint(ErrorStyleBG, string(d.Code))+" "+p.tint(ErrorColorFG, d.String()))
	case SeverityWarning:
		fmt.Fprintln(p.out, p.paint(WarnStyleBG, string(d.Code))+" "+p.tint(WarnColorFG, d.String()))
	default:
		fmt.Fprintln(p.out, p.paint(InfoStyleBG, string(d.Code))+" "+d.String())
	}
}

// PrintError prints a syntax/loading error or any other error value.
func (p *Printer) PrintError(tag string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.paint(ErrorStyleBG, tag)+" "+p.tint(ErrorColorFG, err.Error()))
}

// PrintInfo prints an informational line with a highlighted tag.
func (p *Printer) PrintInfo(tag, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.paint(InfoStyleBG, tag)+" "+msg)
}
