// Package parser runs the external Objective-J parser. The parser is a
// separate program that reads source text and writes the ESTree JSON
// syntax tree that package ast decodes.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// FilePlaceholder in a command argument is replaced by the source path.
const FilePlaceholder = "{file}"

// ErrNoParser is returned when no parser command is configured.
var ErrNoParser = errors.New("parser: no parser command configured")

// Error is a parser failure. Message is the first line the parser wrote
// to standard error; Line and Column are set when that line starts with a
// location.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Diagnostic converts the failure into a syntax error diagnostic.
func (e *Error) Diagnostic() *diag.Diagnostic {
	d := &diag.Diagnostic{Severity: diag.Error, Kind: diag.KindSyntax, Message: e.Message, File: e.File}
	if e.Line > 0 {
		col := e.Column - 1
		if col < 0 {
			col = 0
		}
		d.Span.Start = ast.Position{Line: e.Line, Column: col}
		d.Span.End = d.Span.Start
	}
	return d
}

// "[file:]line:col: message", as printed by most parsers.
var locationRE = regexp.MustCompile(`^(?:.*?:)?(\d+):(\d+):\s*(.*)$`)

func newError(file string, stderr []byte, err error) *Error {
	e := &Error{File: file, Err: err}
	line, _, _ := strings.Cut(strings.TrimSpace(string(stderr)), "\n")
	if line == "" {
		e.Message = err.Error()
		return e
	}
	e.Message = line
	if m := locationRE.FindStringSubmatch(line); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
		e.Column, _ = strconv.Atoi(m[2])
		e.Message = m[3]
	}
	return e
}

// Runner invokes the parser command.
type Runner struct {
	command []string
	timeout time.Duration
	log     commonlog.Logger
}

// NewRunner returns a runner for command. A zero timeout means none.
func NewRunner(command []string, timeout time.Duration) (*Runner, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoParser
	}
	return &Runner{
		command: append([]string(nil), command...),
		timeout: timeout,
		log:     commonlog.GetLogger("objjc.parser"),
	}, nil
}

// Command returns the configured command line.
func (r *Runner) Command() []string { return append([]string(nil), r.command...) }

// Parse runs the parser on source, which was read from path, and decodes
// its output.
func (r *Runner) Parse(ctx context.Context, path string, source []byte) (*ast.Program, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, len(r.command)-1)
	for i, a := range r.command[1:] {
		args[i] = strings.ReplaceAll(a, FilePlaceholder, path)
	}
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Stdin = bytes.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("parser: %s: %w", path, ctx.Err())
		}
		return nil, newError(path, stderr.Bytes(), err)
	}
	r.log.Debugf("parsed %s in %s", path, time.Since(start))

	prog, err := ast.ParseBytes(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	return prog, nil
}
