package convert

import (
	"strings"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/equation"
	"github.com/dgallion1/md2notion/internal/richtext"
	"github.com/dgallion1/md2notion/internal/source"
)

func convertHeading(w Walker, n source.Node, _ Context) ([]block.Block, error) {
	h := n.(*source.Heading)
	return []block.Block{block.NewHeading(h.Level, w.Inline(h.Inlines))}, nil
}

// convertParagraph splits the paragraph around display equations, which
// cannot live inside rich text.
func convertParagraph(w Walker, n source.Node, _ Context) ([]block.Block, error) {
	p := n.(*source.Paragraph)

	var out []block.Block
	var pending []source.Node
	flush := func() {
		runs := w.Inline(pending)
		pending = nil
		if strings.TrimSpace(richtext.Concat(runs)) == "" {
			return
		}
		out = append(out, block.NewParagraph(runs...))
	}

	for _, in := range p.Inlines {
		if m, ok := in.(*source.Math); ok && m.Display {
			flush()
			out = append(out, w.displayEquation(m)...)
			continue
		}
		pending = append(pending, in)
	}
	flush()
	return out, nil
}

func convertStrayInline(w Walker, n source.Node, _ Context) ([]block.Block, error) {
	runs := w.Inline([]source.Node{n})
	if len(runs) == 0 {
		return nil, nil
	}
	return []block.Block{block.NewParagraph(runs...)}, nil
}

func convertList(w Walker, n source.Node, ctx Context) ([]block.Block, error) {
	var items []*source.ListItem
	ordered := false
	switch l := n.(type) {
	case *source.BulletList:
		items = l.Items
	case *source.OrderedList:
		// The API numbers items itself; l.Start has nowhere to go.
		items, ordered = l.Items, true
	}

	nodes := make([]source.Node, len(items))
	for i, it := range items {
		nodes[i] = it
	}
	return w.Blocks(nodes, ctx.WithList(ordered))
}

// convertListItem takes the item text from a leading paragraph. Everything
// after it, including a nested list, becomes the item's children.
func convertListItem(w Walker, n source.Node, ctx Context) ([]block.Block, error) {
	item := n.(*source.ListItem)

	rest := item.Children
	var runs []richtext.RichText
	if len(rest) > 0 {
		if p, ok := rest[0].(*source.Paragraph); ok {
			runs = w.Inline(p.Inlines)
			rest = rest[1:]
		}
	}

	b := &block.ListItem{Style: block.Bulleted}
	if ctx.List.Ordered {
		b.Style = block.Numbered
	}
	if stripped, checked, ok := stripCheckbox(runs); ok {
		b.Style = block.ToDo
		b.Checked = checked
		runs = stripped
	}
	b.RichText = runs

	children, err := w.Blocks(rest, ctx.Nested())
	b.Blocks = children
	return []block.Block{b}, err
}

var checkboxMarkers = []struct {
	marker  string
	checked bool
}{
	{"[ ]", false},
	{"[x]", true},
	{"[X]", true},
	{"☐", false},
	{"☒", true},
	{"☑", true},
}

// stripCheckbox removes a leading task marker and the whitespace after it.
func stripCheckbox(runs []richtext.RichText) ([]richtext.RichText, bool, bool) {
	if len(runs) == 0 || runs[0].IsEquation() {
		return runs, false, false
	}
	first := runs[0].Content()
	for _, m := range checkboxMarkers {
		if !strings.HasPrefix(first, m.marker) {
			continue
		}
		rest := first[len(m.marker):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		rest = strings.TrimLeft(rest, " \t")

		out := make([]richtext.RichText, 0, len(runs))
		if rest != "" {
			out = append(out, runs[0].WithContent(rest))
		}
		out = append(out, runs[1:]...)
		return out, m.checked, true
	}
	return runs, false, false
}

// convertQuote uses a leading paragraph or heading as the quote text and
// nests the remaining blocks.
func convertQuote(w Walker, n source.Node, ctx Context) ([]block.Block, error) {
	q := n.(*source.BlockQuote)

	rest := q.Children
	var runs []richtext.RichText
	if len(rest) > 0 {
		switch first := rest[0].(type) {
		case *source.Paragraph:
			runs = w.Inline(first.Inlines)
			rest = rest[1:]
		case *source.Heading:
			runs = w.Inline(first.Inlines)
			rest = rest[1:]
		}
	}

	children, err := w.Blocks(rest, ctx.Nested())
	return []block.Block{&block.Quote{RichText: runs, Blocks: children}}, err
}

func convertCode(_ Walker, n source.Node, _ Context) ([]block.Block, error) {
	c := n.(*source.CodeBlock)
	return []block.Block{block.NewCode(c.Language, c.Text, c.Caption)}, nil
}

func convertMath(w Walker, n source.Node, _ Context) ([]block.Block, error) {
	m := n.(*source.Math)
	if m.Display {
		return w.displayEquation(m), nil
	}
	expr := w.normalize(m.Expression, equation.Inline)
	return []block.Block{block.NewParagraph(richtext.Equation(expr))}, nil
}

func (w Walker) displayEquation(m *source.Math) []block.Block {
	expr, number := equation.ExtractNumber(m.Expression)
	expr = w.normalize(expr, equation.Display)

	out := []block.Block{&block.Equation{Expression: expr, Number: number}}
	if number != "" && w.c.equationNumbers {
		out = append(out, block.NewParagraph(richtext.Plain("("+number+")")))
	}
	return out
}
