package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/evaluator"
	"github.com/funvibe/dsema/pkg/engine"
	"github.com/pterm/pterm"
)

// command carries what every subcommand needs.
type command struct {
	out     io.Writer
	printer *diagnostics.Printer
	engine  *engine.Engine
}

// position reads the --at argument. Without one the caret is placed at
// module scope of the first loaded source module.
func (c *command) position(args map[string]interface{}) (engine.Position, error) {
	if v, ok := args["at"]; ok {
		return engine.ParsePosition(v.(string))
	}
	for _, m := range c.engine.Snapshot().Entries() {
		if !m.IsVirtual {
			return engine.Position{Module: m.Name}, nil
		}
	}
	return engine.Position{}, errNoModules
}

// finish reports the session's soft errors and maps an outcome to an exit
// code.
func (c *command) finish(s *engine.Session, err error, found bool) int {
	for _, d := range s.Diagnostics() {
		c.printer.Report(d)
	}
	var ee *evaluator.EvaluationError
	switch {
	case errors.As(err, &ee):
		c.printer.Report(diagnostics.Diagnostic{
			Code:     diagnostics.ErrE001,
			Severity: diagnostics.SeverityError,
			Message:  ee.Reason,
			Node:     ee.Expr,
		})
		return exitFailure
	case err != nil:
		c.printer.PrintError("Query Error", err)
		return exitFailure
	}
	if !found {
		return exitFailure
	}
	return exitOK
}

func (c *command) types(expr string, at engine.Position) int {
	s := c.engine.Session()
	ts, err := s.Types(expr, at)
	for _, t := range ts {
		fmt.Fprintln(c.out, t.String())
	}
	return c.finish(s, err, len(ts) > 0)
}

func (c *command) eval(expr string, at engine.Position, runtime bool) int {
	s := c.engine.Session()
	if runtime {
		f := false
		opts := *s.Options
		opts.ConstantOnly = &f
		s.Options = &opts
	}
	v, err := s.Value(expr, at)
	if err == nil {
		if t := v.SymbolType(); t != nil {
			fmt.Fprintf(c.out, "%s : %s\n", v.Inspect(), t)
		} else {
			fmt.Fprintln(c.out, v.Inspect())
		}
	}
	return c.finish(s, err, v != nil)
}

func (c *command) members(expr string, at engine.Position) int {
	s := c.engine.Session()
	names, err := s.Members(expr, at)
	if len(names) > 0 {
		fmt.Fprintln(c.out, strings.Join(names, "\n"))
	}
	return c.finish(s, err, len(names) > 0)
}

// modules prints a table of the loaded modules followed by a summary.
func (c *command) modules() int {
	snap := c.engine.Snapshot()
	data := pterm.TableData{{"Module", "File", "Size", "Imports", "Errors"}}
	var total, sources, broken int
	for _, m := range snap.Entries() {
		file := m.Path
		if m.IsVirtual {
			file = "(built-in)"
		} else {
			sources++
		}
		total += m.Size
		if m.HasErrors() {
			broken++
		}
		data = append(data, []string{
			m.Name,
			file,
			humanize.Bytes(uint64(m.Size)),
			strings.Join(m.Imports(), ", "),
			humanize.Comma(int64(len(m.Errors))),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		c.printer.PrintError("Output Error", err)
		return exitFailure
	}
	fmt.Fprintln(c.out, table)
	fmt.Fprintf(c.out, "%s source %s, %s, generation %d\n",
		humanize.Comma(int64(sources)), plural(sources, "module", "modules"),
		humanize.Bytes(uint64(total)), snap.Generation)

	for _, name := range snap.Duplicates() {
		c.printer.PrintError("Duplicate Module", fmt.Errorf("%s is declared by more than one file", name))
	}
	for _, m := range snap.Entries() {
		for _, e := range m.Errors {
			c.printer.PrintError("Syntax Error", e)
		}
	}
	if broken > 0 {
		return exitFailure
	}
	return exitOK
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
