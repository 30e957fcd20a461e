// objjc CLI - compiles Objective-J to JavaScript
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/compiler"

	_ "github.com/tliron/commonlog/simple"
)

// errFailed reports a failure that has already been shown to the user.
var errFailed = errors.New("failed")

// verbosity is a repeatable -v flag.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

// cli carries what every subcommand needs.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	dir    string // working directory
	log    commonlog.Logger
}

type command struct {
	name  string
	usage string
	run   func(c *cli, ctx context.Context, args []string) error
}

var commands = []command{
	{"compile", "compile files to JavaScript", (*cli).compile},
	{"deps", "list the imports of files", (*cli).deps},
	{"build", "build the project described by objjc.toml", (*cli).build},
	{"cache", "show or prune the build cache", (*cli).cache},
	{"serve", "run the compile service", (*cli).serve},
	{"lsp", "run the language server on stdio", (*cli).lsp},
	{"fmt-check", "validate a format description", (*cli).fmtCheck},
	{"version", "print the compiler version", (*cli).version},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: objjc [-v] <command> [options] [args...]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  objjc compile Main.j                 # parse with the configured parser, print JavaScript\n")
	fmt.Fprintf(w, "  objjc compile -o Main.js Main.json   # compile a parser JSON tree\n")
	fmt.Fprintf(w, "  objjc build                          # compile every project file into build/\n")
	fmt.Fprintf(w, "  objjc serve -addr :7017              # Connect (HTTP/JSON) compile service\n")
	fmt.Fprintf(w, "\nRun 'objjc <command> -h' for command options.\n")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("objjc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var v verbosity
	fs.Var(&v, "v", "verbose logging (repeat for more)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	commonlog.Configure(int(v), nil)

	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}
	name, rest := fs.Arg(0), fs.Args()[1:]

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	c := &cli{stdout: stdout, stderr: stderr, dir: dir, log: commonlog.GetLogger("objjc.cli")}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(c, ctx, rest)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errFailed):
			return 1
		case errors.Is(err, errUsage):
			return 2
		default:
			printError(stderr, err)
			return 1
		}
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
	usage(stderr)
	return 2
}

// errUsage reports bad command line arguments; the flag set has already
// printed the problem.
var errUsage = errors.New("usage")

// newFlagSet returns a flag set for a subcommand that reports errors
// instead of exiting.
func (c *cli) newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: objjc %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args, mapping parse failures to errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func (c *cli) version(ctx context.Context, args []string) error {
	fmt.Fprintf(c.stdout, "objjc %s\n", compiler.Version)
	return nil
}
