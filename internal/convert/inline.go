package convert

import (
	"github.com/dgallion1/md2notion/internal/equation"
	"github.com/dgallion1/md2notion/internal/richtext"
	"github.com/dgallion1/md2notion/internal/source"
)

// marks is the formatting inherited from enclosing inline nodes.
type marks struct {
	ann  richtext.Annotations
	link string
}

// Inline flattens an inline tree into runs. Every text leaf becomes its own
// run carrying the marks of all its ancestors; adjacent runs are not merged.
func (w Walker) Inline(nodes []source.Node) []richtext.RichText {
	return w.appendInline(nil, nodes, marks{}, 0)
}

func (w Walker) appendInline(runs []richtext.RichText, nodes []source.Node, m marks, depth int) []richtext.RichText {
	for _, n := range nodes {
		if depth > w.c.maxDepth {
			if s := source.PlainText(n); s != "" {
				runs = append(runs, richtext.Text(s, m.ann, m.link))
			}
			continue
		}

		inner := m
		switch n := n.(type) {
		case *source.Text:
			if n.Value != "" {
				runs = append(runs, richtext.Text(n.Value, m.ann, m.link))
			}
		case *source.Bold:
			inner.ann.Bold = true
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Italic:
			inner.ann.Italic = true
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Strikethrough:
			inner.ann.Strikethrough = true
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Underline:
			inner.ann.Underline = true
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Code:
			inner.ann.Code = true
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Link:
			inner.link = n.URL
			runs = w.appendInline(runs, n.Children, inner, depth+1)
		case *source.Math:
			mode := equation.Inline
			if n.Display {
				mode = equation.Display
			}
			// Equations ignore inherited marks.
			runs = append(runs, richtext.Equation(w.normalize(n.Expression, mode)))
		case *source.Image:
			text := n.Alt
			if text == "" {
				text = n.URL
			}
			if text != "" {
				runs = append(runs, richtext.Text(text, m.ann, n.URL))
			}
		default:
			if s := source.PlainText(n); s != "" {
				runs = append(runs, richtext.Text(s, m.ann, m.link))
			}
		}
	}
	return runs
}
