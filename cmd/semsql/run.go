package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shipq/semsql/cli"
)

const usage = `semsql - Dialect-aware SQL fragments and semantic query compilation

Usage:
  semsql [--dir <path>] [--verbose] <command> [arguments]

Commands:
  dialects                          List registered dialects
  fragment <dialect> <capability>   Print one SQL fragment (run 'semsql fragment --help')
  templates <dialect>               Print the layered template table
  compile <query.json|query.yaml>   Compile a query with the configured dialect
  run <query.json|query.yaml>       Compile and execute against database_url
  estimate [file]                   Approximate distinct lines of a file or stdin
  init [--dialect <name>] [dir]     Write a starter semsql.ini

Options:
  --dir <path>  Directory containing semsql.ini (default: current directory)
  --verbose     Log compile passes at debug level
  -h, --help    Show this help message
`

// globals are the flags accepted before the command name.
type globals struct {
	dir   string
	level slog.Level
}

// run dispatches commands and returns an exit code.
func run(args []string) int {
	return runWithOutput(args, cli.Std())
}

// runWithOutput dispatches commands with custom output writers.
func runWithOutput(args []string, out *cli.Output) int {
	g := globals{level: slog.LevelInfo}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--dir" {
			if i+1 >= len(args) {
				return out.Error("--dir requires a path argument")
			}
			g.dir = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--dir=") {
			g.dir = strings.TrimPrefix(arg, "--dir=")
			continue
		}
		if arg == "--verbose" || arg == "-v" {
			g.level = slog.LevelDebug
			continue
		}

		remaining = args[i:]
		break
	}

	if len(remaining) == 0 {
		printHelp(out.Stdout)
		return 0
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp(out.Stdout)
		return 0
	case "dialects":
		return dialectsCmd(out)
	case "fragment":
		return fragmentCmd(cmdArgs, out)
	case "templates":
		return templatesCmd(g, cmdArgs, out)
	case "compile":
		return compileCmd(g, cmdArgs, out)
	case "run":
		return runCmd(g, cmdArgs, out)
	case "estimate":
		return estimateCmd(cmdArgs, os.Stdin, out)
	case "init":
		return initCmd(g, cmdArgs, out)
	default:
		out.Errorf("unknown command: %s", cmd)
		fmt.Fprintln(out.Stderr, "Run 'semsql --help' for usage.")
		return 1
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, usage)
}
