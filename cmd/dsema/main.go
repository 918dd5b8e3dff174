package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ComedicChimera/olive"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/pkg/engine"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cli := olive.NewCLI("dsema", "dsema resolves symbol types and compile-time values of D sources", true)
	cli.AddSelectorArg("loglevel", "ll", "the diagnostic level", false, []string{"silent", "error", "warning", "verbose"})
	cli.AddSelectorArg("color", "c", "when to colour output", false, []string{"auto", "always", "never"})
	cli.AddStringArg("dir", "d", "the source directory (default: the working directory)", false)

	typeCmd := cli.AddSubcommand("type", "print the symbol types of an expression", true)
	typeCmd.AddPrimaryArg("expr", "the expression to resolve", true)
	typeCmd.AddStringArg("at", "a", "the caret: module[:line[:col]]", false)

	evalCmd := cli.AddSubcommand("eval", "print the compile-time value of an expression", true)
	evalCmd.AddPrimaryArg("expr", "the expression to evaluate", true)
	evalCmd.AddStringArg("at", "a", "the caret: module[:line[:col]]", false)
	evalCmd.AddFlag("runtime", "rt", "also read variables that are not compile-time constants")

	membersCmd := cli.AddSubcommand("members", "list the members reachable through an expression", true)
	membersCmd.AddPrimaryArg("expr", "the receiver expression", true)
	membersCmd.AddStringArg("at", "a", "the caret: module[:line[:col]]", false)

	cli.AddSubcommand("modules", "list the loaded modules", false)

	usage := diagnostics.NewPrinter(stderr, "auto", diagnostics.SeverityError)
	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		usage.PrintError("CLI Usage Error", err)
		return exitUsage
	}

	dir := "."
	if v, ok := result.Arguments["dir"]; ok {
		dir = v.(string)
	}
	opts, optsPath, err := config.Resolve(dir)
	if err != nil {
		usage.PrintError("Config Error", err)
		return exitFailure
	}
	if v, ok := result.Arguments["loglevel"]; ok {
		opts.LogLevel = v.(string)
	}
	if v, ok := result.Arguments["color"]; ok {
		opts.Color = v.(string)
	}

	c := &command{
		out:     stdout,
		printer: diagnostics.NewPrinter(stderr, opts.Color, diagnostics.LevelSeverity(opts.LogLevel)),
	}
	if opts.LogLevel == "verbose" {
		log.SetOutput(stderr)
		if optsPath != "" {
			log.Printf("options from %s", optsPath)
		}
	}

	c.engine = engine.New(opts)
	if _, err := c.engine.LoadDir(context.Background(), dir); err != nil {
		c.printer.PrintError("Load Error", err)
		return exitFailure
	}

	subName, sub, _ := result.Subcommand()
	if subName == "modules" {
		return c.modules()
	}
	if sub == nil {
		c.printer.PrintError("CLI Usage Error", errors.New("expected one of type, eval, members, modules"))
		return exitUsage
	}
	expr, _ := sub.PrimaryArg()
	at, err := c.position(sub.Arguments)
	if err != nil {
		c.printer.PrintError("Position Error", err)
		return exitUsage
	}
	switch subName {
	case "type":
		return c.types(expr, at)
	case "eval":
		return c.eval(expr, at, sub.HasFlag("runtime"))
	case "members":
		return c.members(expr, at)
	}
	c.printer.PrintError("CLI Usage Error", fmt.Errorf("unknown command %q", subName))
	return exitUsage
}

var errNoModules = errors.New("no source modules loaded")
