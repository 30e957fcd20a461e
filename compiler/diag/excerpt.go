package diag

import (
	"strconv"
	"strings"
)

// Excerpt renders the source lines covered by d with a caret underline:
//
//	3 | x = [foo bar];
//	  |     ^^^^^^^^^
//
// It returns "" when d has no line information or the lines are not in
// source.
func Excerpt(d *Diagnostic, source string) string {
	if d == nil || d.Span.Start.Line <= 0 || source == "" {
		return ""
	}
	all := strings.Split(source, "\n")
	startLine, endLine := d.Span.Start.Line, d.Span.End.Line
	if endLine < startLine {
		endLine = startLine
	}
	if startLine > len(all) {
		return ""
	}
	if endLine > len(all) {
		endLine = len(all)
	}

	lines := make([]string, 0, endLine-startLine+1)
	for ln := startLine; ln <= endLine; ln++ {
		lines = append(lines, strings.ReplaceAll(strings.TrimRight(all[ln-1], "\r"), "\t", "    "))
	}

	width := len(strconv.Itoa(endLine))
	gutter := strings.Repeat(" ", width) + " | "

	var b strings.Builder
	for i, line := range lines {
		num := strconv.Itoa(startLine + i)
		b.WriteString(strings.Repeat(" ", width-len(num)))
		b.WriteString(num)
		b.WriteString(" | ")
		b.WriteString(line)
		b.WriteByte('\n')

		from := 0
		if i == 0 {
			from = expandedColumn(all[startLine-1], d.Span.Start.Column)
		}
		to := len(line)
		if i == len(lines)-1 && d.Span.End.Line >= d.Span.Start.Line {
			to = expandedColumn(all[endLine-1], d.Span.End.Column)
		}
		if from > len(line) {
			from = len(line)
		}
		if to > len(line) {
			to = len(line)
		}
		if to <= from {
			to = from + 1
		}
		b.WriteString(gutter)
		b.WriteString(strings.Repeat(" ", from))
		b.WriteString(strings.Repeat("^", to-from))
		b.WriteByte('\n')
	}
	return b.String()
}

// expandedColumn maps a byte column to its position once tabs are replaced
// by four spaces.
func expandedColumn(line string, col int) int {
	if col > len(line) {
		col = len(line)
	}
	return col + 3*strings.Count(line[:col], "\t")
}
