package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/phasec/internal/config"
)

const usage = `phasec - checker for the preflight/inflight language

Usage:
  phasec check [--dump] [--debug] [--config <phasec.yaml>] <file.ast.json>...
      Type check syntax tree documents and print their diagnostics.
      Units are written to the symbol database when phasec.yaml sets symbolDB.

  phasec symbols <db> [unit-id]
      List the units of a symbol database, or the symbols of one unit.

  phasec help
      Show this message.
`

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if os.Getenv("PHASEC_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "help", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	case "check":
		return handleCheck(args[1:], stdout, stderr)
	case "symbols":
		return handleSymbols(args[1:], stdout, stderr)
	}

	// A bare list of trees is checked.
	if strings.HasSuffix(args[0], config.ASTFileExt) {
		return handleCheck(args, stdout, stderr)
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n%s", args[0], usage)
	return 2
}

// checkOptions are the parsed flags of the check command.
type checkOptions struct {
	dump       bool
	debug      bool
	configPath string
	files      []string
}

func parseCheckArgs(args []string) (checkOptions, error) {
	var opts checkOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--dump" || arg == "-dump":
			opts.dump = true
		case arg == "--debug" || arg == "-debug":
			opts.debug = true
		case arg == "--config" || arg == "-config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unknown flag %s", arg)
		default:
			opts.files = append(opts.files, arg)
		}
	}
	if len(opts.files) == 0 {
		return opts, fmt.Errorf("no input files")
	}
	return opts, nil
}

// loadProject reads the explicit configuration, or the phasec.yaml governing
// the directory of the first input.
func loadProject(opts checkOptions) (*config.Project, error) {
	if opts.configPath != "" {
		return config.LoadProject(opts.configPath)
	}
	return config.ProjectFor(filepath.Dir(opts.files[0]))
}
