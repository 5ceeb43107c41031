// Package equation prepares TeX expressions for Notion's KaTeX renderer.
//
// Normalize puts thin Unicode spaces around binary operators (U+2005) and
// relations (U+2004) so that expressions read the same in both inline and
// block equations. The pass is idempotent.
package equation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	OperatorSpace = '\u2005' // four-per-em space
	RelationSpace = '\u2004' // three-per-em space
)

// ErrMalformedEquation is returned when braces are unbalanced or the
// expression ends in a lone backslash. The expression is returned unchanged.
var ErrMalformedEquation = errors.New("malformed equation")

// Mode selects delimiter handling.
type Mode uint8

const (
	Inline Mode = iota
	Display
)

var operators = map[rune]bool{
	'+': true, '-': true, '*': true, '/': true,
	'×': true, '÷': true, '±': true, '∓': true, '·': true,
}

var relations = map[rune]bool{
	'=': true, '<': true, '>': true,
	'≤': true, '≥': true, '≠': true, '≈': true,
}

// Commands whose single brace argument is copied untouched.
var verbatimArgs = map[string]bool{
	"text": true, "textrm": true, "textbf": true, "textit": true, "texttt": true,
	"mathrm": true, "operatorname": true, "mbox": true,
	"label": true, "tag": true, "ref": true, "eqref": true,
	"begin": true, "end": true,
}

// Delimiter sizing commands; a following < > / is a delimiter, not an operator.
var delimiterCommands = map[string]bool{
	"left": true, "right": true, "middle": true,
	"big": true, "Big": true, "bigg": true, "Bigg": true,
	"bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
}

// Runes after which an operator is unary.
const unaryContext = "{([^_,"

// Environments unwrapped in display mode.
var environments = []string{"equation", "align", "aligned", "gather", "multline"}

// Normalize returns expr with operator spacing applied. Inline mode strips
// surrounding $ delimiters; display mode unwraps a single math environment,
// removes \label{...} and rewrites \eqref to \ref.
//
// On ErrMalformedEquation the returned string is the delimiter-stripped input
// and callers should use it as is.
func Normalize(expr string, mode Mode) (string, error) {
	switch mode {
	case Inline:
		expr = stripDollars(expr)
	case Display:
		expr = stripDollars(expr)
		expr = unwrapEnvironment(expr)
		expr = strings.ReplaceAll(expr, `\eqref`, `\ref`)
		expr = removeCommand(expr, "label")
	}
	expr = strings.TrimSpace(expr)

	if err := checkBalanced(expr); err != nil {
		return expr, err
	}
	return space(expr), nil
}

func stripDollars(expr string) string {
	s := strings.TrimSpace(expr)
	for _, d := range []string{"$$", "$"} {
		if len(s) >= 2*len(d) && strings.HasPrefix(s, d) && strings.HasSuffix(s, d) {
			return s[len(d) : len(s)-len(d)]
		}
	}
	return expr
}

func unwrapEnvironment(expr string) string {
	s := strings.TrimSpace(expr)
	for _, env := range environments {
		for _, name := range []string{env + "*", env} {
			begin := `\begin{` + name + `}`
			end := `\end{` + name + `}`
			if strings.HasPrefix(s, begin) && strings.HasSuffix(s, end) && len(s) >= len(begin)+len(end) {
				inner := s[len(begin) : len(s)-len(end)]
				if env == "align" {
					// KaTeX only renders alignment inside aligned.
					return `\begin{aligned}` + inner + `\end{aligned}`
				}
				return inner
			}
		}
	}
	return expr
}

// removeCommand deletes every \name{...} group from expr.
func removeCommand(expr, name string) string {
	prefix := `\` + name + `{`
	for {
		i := strings.Index(expr, prefix)
		if i < 0 {
			return expr
		}
		end := matchBrace(expr, i+len(prefix)-1)
		if end < 0 {
			return expr
		}
		expr = expr[:i] + expr[end+1:]
	}
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func checkBalanced(expr string) error {
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			if i == len(expr)-1 {
				return ErrMalformedEquation
			}
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return ErrMalformedEquation
			}
		}
	}
	if depth != 0 {
		return ErrMalformedEquation
	}
	return nil
}

// space walks a balanced expression and inserts the operator glyphs.
func space(expr string) string {
	var out []rune
	lastCommand := ""
	for i := 0; i < len(expr); {
		r, size := utf8.DecodeRuneInString(expr[i:])

		if r == '\\' {
			next, nsize := utf8.DecodeRuneInString(expr[i+size:])
			if !isLetter(next) {
				out = append(out, r, next)
				i += size + nsize
				lastCommand = ""
				continue
			}
			j := i + size
			for j < len(expr) && isLetter(rune(expr[j])) {
				j++
			}
			name := expr[i+size : j]
			out = append(out, []rune(expr[i:j])...)
			i = j
			lastCommand = name
			if verbatimArgs[name] {
				k := i
				for k < len(expr) && expr[k] == ' ' {
					k++
				}
				if k < len(expr) && expr[k] == '{' {
					if end := matchBrace(expr, k); end >= 0 {
						out = append(out, []rune(expr[i:end+1])...)
						i = end + 1
						lastCommand = ""
					}
				}
			}
			continue
		}

		op, opSize, glyph := operatorAt(expr, i)
		if op == "" {
			out = append(out, r)
			i += size
			if r != ' ' {
				lastCommand = ""
			}
			continue
		}

		if delimiterCommands[lastCommand] || isUnary(out) {
			out = append(out, []rune(op)...)
			i += opSize
			lastCommand = ""
			continue
		}

		out = trimSpacing(out)
		out = append(out, glyph)
		out = append(out, []rune(op)...)
		out = append(out, glyph)
		i += opSize
		for i < len(expr) {
			nr, nsize := utf8.DecodeRuneInString(expr[i:])
			if nr != ' ' && nr != OperatorSpace && nr != RelationSpace {
				break
			}
			i += nsize
		}
		lastCommand = ""
	}
	return string(out)
}

// operatorAt reports the operator token starting at i, its byte length and
// the glyph to surround it with.
func operatorAt(expr string, i int) (string, int, rune) {
	r, size := utf8.DecodeRuneInString(expr[i:])
	switch {
	case (r == '<' || r == '>' || r == '!') && i+1 < len(expr) && expr[i+1] == '=':
		return expr[i : i+2], 2, RelationSpace
	case relations[r]:
		return expr[i : i+size], size, RelationSpace
	case operators[r]:
		return expr[i : i+size], size, OperatorSpace
	}
	return "", 0, 0
}

func isUnary(out []rune) bool {
	for k := len(out) - 1; k >= 0; k-- {
		r := out[k]
		if r == ' ' || r == OperatorSpace || r == RelationSpace {
			continue
		}
		return strings.ContainsRune(unaryContext, r) || operators[r] || relations[r]
	}
	return true
}

func trimSpacing(out []rune) []rune {
	for len(out) > 0 {
		r := out[len(out)-1]
		if r != ' ' && r != OperatorSpace && r != RelationSpace {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

func isLetter(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsLetter(r)
}
