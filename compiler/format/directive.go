package format

import "strconv"

// Piece is one element of a rule text: literal text, or an indentation
// change written as {+N}, {-N} or {0}.
type Piece struct {
	Text     string
	Indent   int
	IsIndent bool
}

// Split breaks rule text into literal pieces and indentation directives.
// Braces that do not form a directive are kept as text.
func Split(text string) []Piece {
	var out []Piece
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		n, width, ok := directiveAt(text[i:])
		if !ok {
			continue
		}
		if i > start {
			out = append(out, Piece{Text: text[start:i]})
		}
		out = append(out, Piece{Indent: n, IsIndent: true})
		i += width - 1
		start = i + 1
	}
	if start < len(text) {
		out = append(out, Piece{Text: text[start:]})
	}
	return out
}

// HasDirective reports whether text contains an indentation directive.
func HasDirective(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			if _, _, ok := directiveAt(text[i:]); ok {
				return true
			}
		}
	}
	return false
}

func directiveAt(s string) (n, width int, ok bool) {
	j := 1
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	digits := j
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == digits || j >= len(s) || s[j] != '}' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[1:j])
	if err != nil {
		return 0, 0, false
	}
	if s[1] != '+' && s[1] != '-' && n != 0 {
		// Unsigned values other than {0} are ordinary text.
		return 0, 0, false
	}
	return n, j + 1, true
}
