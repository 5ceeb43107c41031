package source

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText renders the textual content of n with all markup dropped.
// Block children are separated by newlines, table cells by " | ".
func PlainText(n Node) string {
	var b strings.Builder
	writePlain(&b, n)
	return strings.TrimRight(b.String(), "\n")
}

func writePlain(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		b.WriteString(n.Value)
	case *Math:
		b.WriteString(n.Expression)
	case *CodeBlock:
		b.WriteString(n.Text)
	case *Image:
		if n.Alt != "" {
			b.WriteString(n.Alt)
		} else {
			b.WriteString(n.URL)
		}
	case *ThematicBreak:
		b.WriteString("---")
	case *HTML:
		b.WriteString(HTMLText(n.Raw))
	case *RawHTML:
		b.WriteString(HTMLText(n.Raw))
	case *Table:
		for i, row := range n.Rows {
			if i > 0 {
				b.WriteByte('\n')
			}
			for j, cell := range row {
				if j > 0 {
					b.WriteString(" | ")
				}
				for _, c := range cell {
					writePlain(b, c)
				}
			}
		}
	default:
		children := Children(n)
		block := !n.Kind().IsInline() && n.Kind() != KindHeading && n.Kind() != KindParagraph
		for i, c := range children {
			if block && i > 0 {
				b.WriteByte('\n')
			}
			writePlain(b, c)
		}
	}
}

// HTMLText returns the text content of an HTML fragment, with element
// boundaries of block-level tags turned into newlines. Script and style
// bodies are dropped.
func HTMLText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "tr":
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		}
	}
}
