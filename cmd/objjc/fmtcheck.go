package main

import (
	"context"
	"fmt"

	"github.com/chazu/objjc/compiler/format"
)

// fmtCheck handles `objjc fmt-check`: validates format description files
// against the schema and loads them, or prints the built-in description.
func (c *cli) fmtCheck(ctx context.Context, args []string) error {
	fs := c.newFlagSet("fmt-check", "<description.json|description.toml>...")
	printDefault := fs.Bool("print-default", false, "print the built-in description and exit")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *printDefault {
		_, err := c.stdout.Write(format.DefaultDescription())
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	failed := false
	for _, path := range fs.Args() {
		table, err := format.LoadFile(path)
		if err != nil {
			printError(c.stderr, err)
			failed = true
			continue
		}
		fmt.Fprintf(c.stdout, "%s: ok (%d node types)\n", path, len(table.Types()))
	}
	if failed {
		return errFailed
	}
	return nil
}
