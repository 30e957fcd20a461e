package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/chazu/objjc/compiler/diag"
)

var (
	errorColorFG = pterm.FgRed
	errorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	warnColorFG  = pterm.FgYellow
	warnStyleBG  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	noteColorFG  = pterm.FgCyan
	infoColorFG  = pterm.FgLightGreen
)

// printError prints a plain Go error.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyleBG.Sprint(" Error ")+" "+errorColorFG.Sprint(err.Error()))
}

// sourceLines splits a source text for excerpts.
type sourceLines []string

func newSourceLines(src string) sourceLines {
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

// line returns the 1-based line n, if present.
func (s sourceLines) line(n int) (string, bool) {
	if n < 1 || n > len(s) {
		return "", false
	}
	return strings.TrimRight(s[n-1], "\r"), true
}

// reporter prints diagnostics with an excerpt of the offending line.
type reporter struct {
	w       io.Writer
	sources map[string]sourceLines
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w, sources: make(map[string]sourceLines)}
}

// addSource registers the text of file for excerpts.
func (r *reporter) addSource(file, src string) {
	r.sources[file] = newSourceLines(src)
}

func (r *reporter) report(ds []*diag.Diagnostic) {
	for _, d := range ds {
		r.diagnostic(d)
	}
}

func (r *reporter) diagnostic(d *diag.Diagnostic) {
	var label string
	msg := d.Message
	switch d.Severity {
	case diag.Error:
		label = errorStyleBG.Sprint(" error ")
		msg = errorColorFG.Sprint(msg)
	case diag.Warning:
		label = warnStyleBG.Sprint(" warning ")
		msg = warnColorFG.Sprint(msg)
	default:
		label = noteColorFG.Sprint("note:")
	}
	if d.Kind != "" {
		msg += " [" + d.Kind + "]"
	}
	fmt.Fprintf(r.w, "%s %s %s\n", infoColorFG.Sprint(location(d.File, d.Span.Start.Line, d.Span.Start.Column)), label, msg)
	r.excerpt(d.File, d.Span.Start.Line, d.Span.Start.Column, d.Span.End.Line, d.Span.End.Column)

	for _, n := range d.Notes {
		file := n.File
		if file == "" {
			file = d.File
		}
		fmt.Fprintf(r.w, "%s %s %s\n", infoColorFG.Sprint(location(file, n.Span.Start.Line, n.Span.Start.Column)), noteColorFG.Sprint("note:"), n.Message)
		r.excerpt(file, n.Span.Start.Line, n.Span.Start.Column, n.Span.End.Line, n.Span.End.Column)
	}
}

// location formats file:line:col with a 1-based column.
func location(file string, line, col int) string {
	if file == "" {
		file = "<input>"
	}
	if line == 0 {
		return file + ":"
	}
	return fmt.Sprintf("%s:%d:%d:", file, line, col+1)
}

// excerpt prints the start line of a span and underlines the span on it.
func (r *reporter) excerpt(file string, line, col, endLine, endCol int) {
	text, ok := r.sources[file].line(line)
	if !ok {
		return
	}
	width := 1
	if endLine == line && endCol > col {
		width = endCol - col
	} else if endLine > line && len(text) > col {
		width = len(text) - col
	}
	if col > len(text) {
		col = len(text)
	}

	gutter := strconv.Itoa(line)
	pad := strings.Repeat(" ", len(gutter))
	// Tabs before the column are kept so the caret lines up.
	lead := strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return ' '
	}, text[:col])

	fmt.Fprintf(r.w, "%s |\n", pad)
	fmt.Fprintf(r.w, "%s | %s\n", infoColorFG.Sprint(gutter), text)
	fmt.Fprintf(r.w, "%s | %s%s\n", pad, lead, errorColorFG.Sprint("^"+strings.Repeat("~", width-1)))
}

// summary prints the error and warning counts.
func summary(w io.Writer, ds []*diag.Diagnostic) {
	var errs, warns int
	for _, d := range ds {
		switch d.Severity {
		case diag.Error:
			errs++
		case diag.Warning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return
	}
	fmt.Fprintf(w, "%s, %s\n", count(errs, "error", errorColorFG), count(warns, "warning", warnColorFG))
}

func count(n int, noun string, color pterm.Color) string {
	s := fmt.Sprintf("%d %s", n, noun)
	if n != 1 {
		s += "s"
	}
	if n == 0 {
		return s
	}
	return color.Sprint(s)
}
