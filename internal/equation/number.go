package equation

import (
	"regexp"
	"strings"
)

var trailingNumber = regexp.MustCompile(`(?:\s+|\\q?quad\s*)\((\d+(?:\.\d+)*[a-z]?)\)\s*$`)

// ExtractNumber finds the equation number of a display expression.
//
// \tag{n} wins and stays in the expression, since KaTeX renders it.
// Otherwise \label{n} is reported (Normalize drops the label later). A
// trailing "(n)" written after whitespace or \quad is reported and removed.
func ExtractNumber(expr string) (string, string) {
	if n, ok := commandArg(expr, "tag"); ok {
		return expr, n
	}
	if n, ok := commandArg(expr, "label"); ok {
		return expr, n
	}
	if m := trailingNumber.FindStringSubmatchIndex(expr); m != nil {
		return strings.TrimRight(expr[:m[0]], " \t\n"), expr[m[2]:m[3]]
	}
	return expr, ""
}

func commandArg(expr, name string) (string, bool) {
	prefix := `\` + name + `{`
	i := strings.Index(expr, prefix)
	if i < 0 {
		return "", false
	}
	open := i + len(prefix) - 1
	end := matchBrace(expr, open)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(expr[open+1 : end]), true
}
