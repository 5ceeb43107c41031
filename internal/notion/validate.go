package notion

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/richtext"
)

// Request limits enforced by the API.
const (
	MaxRichTextRuns   = 100
	MaxURLLength      = 2000
	MaxEquationLength = 1000
	MaxContentLength  = richtext.MaxContentLength
	DefaultMaxDepth   = 64
)

// Violation is one limit a block breaks. Path indexes into the forest,
// e.g. "3.children.0".
type Violation struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s): %s", v.Path, v.Type, v.Message)
}

// Validate checks a forest against the request limits and returns every
// violation found. Text runs are expected to be split already.
func Validate(blocks []block.Block, maxDepth int) []Violation {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	var out []Violation
	for i, b := range blocks {
		out = validateBlock(out, b, strconv.Itoa(i), 1, maxDepth)
	}
	return out
}

func validateBlock(out []Violation, b block.Block, path string, depth, maxDepth int) []Violation {
	report := func(format string, args ...any) {
		out = append(out, Violation{Path: path, Type: string(b.Type()), Message: fmt.Sprintf(format, args...)})
	}

	if depth > maxDepth {
		report("nested %d deep, limit %d", depth, maxDepth)
		return out
	}

	if eq, ok := b.(*block.Equation); ok && utf8.RuneCountInString(eq.Expression) > MaxEquationLength {
		report("equation is %d characters, limit %d", utf8.RuneCountInString(eq.Expression), MaxEquationLength)
	}

	runs := block.RichText(b)
	if len(runs) > MaxRichTextRuns {
		report("%d rich text runs, limit %d", len(runs), MaxRichTextRuns)
	}
	for i, r := range runs {
		if r.IsEquation() {
			if n := utf8.RuneCountInString(r.Expression()); n > MaxEquationLength {
				report("run %d: equation is %d characters, limit %d", i, n, MaxEquationLength)
			}
			continue
		}
		if n := utf8.RuneCountInString(r.Content()); n > MaxContentLength {
			report("run %d: text is %d characters, limit %d", i, n, MaxContentLength)
		}
		if n := len(r.Link()); n > MaxURLLength {
			report("run %d: link is %d characters, limit %d", i, n, MaxURLLength)
		}
	}

	for i, c := range b.Children() {
		out = validateBlock(out, c, path+".children."+strconv.Itoa(i), depth+1, maxDepth)
	}
	return out
}
