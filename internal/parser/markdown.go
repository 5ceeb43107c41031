package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/md2notion/internal/source"
)

// MarkdownParser handles Markdown files using goldmark with GFM and $ math.
// A leading YAML or TOML front matter block supplies the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*source.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &source.Document{Title: titleFromFilename(filename)}

	src := raw
	var meta map[string]any
	if rest, err := frontmatter.Parse(bytes.NewReader(raw), &meta); err == nil {
		src = rest
		if title, ok := meta["title"].(string); ok && strings.TrimSpace(title) != "" {
			doc.Title = strings.TrimSpace(title)
			delete(meta, "title")
		}
		if len(meta) > 0 {
			doc.Properties = meta
		}
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM, Math))
	root := md.Parser().Parse(text.NewReader(src))

	b := &mdBuilder{src: src}
	doc.Children = b.blocks(root)
	return doc, nil
}

type mdBuilder struct {
	src []byte
}

func (b *mdBuilder) blocks(parent ast.Node) []source.Node {
	var out []source.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := b.block(c); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (b *mdBuilder) block(n ast.Node) source.Node {
	switch n := n.(type) {
	case *ast.Heading:
		return &source.Heading{Level: n.Level, Inlines: b.inlines(n)}

	case *ast.Paragraph, *ast.TextBlock:
		inlines := b.inlines(n)
		if len(inlines) == 1 {
			if m, ok := inlines[0].(*source.Math); ok && m.Display {
				return m
			}
		}
		return &source.Paragraph{Inlines: inlines}

	case *ast.List:
		var items []*source.ListItem
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			items = append(items, &source.ListItem{Children: b.blocks(c)})
		}
		if n.IsOrdered() {
			return &source.OrderedList{Start: n.Start, Items: items}
		}
		return &source.BulletList{Items: items}

	case *ast.ListItem:
		return &source.ListItem{Children: b.blocks(n)}

	case *ast.Blockquote:
		return &source.BlockQuote{Children: b.blocks(n)}

	case *ast.FencedCodeBlock:
		code := &source.CodeBlock{Text: b.lines(n)}
		if n.Info != nil {
			code.Language, code.Caption = splitInfo(string(n.Info.Segment.Value(b.src)))
		}
		return code

	case *ast.CodeBlock:
		return &source.CodeBlock{Text: b.lines(n)}

	case *MathBlock:
		return &source.Math{Display: true, Expression: n.Expression(b.src)}

	case *ast.ThematicBreak:
		return &source.ThematicBreak{}

	case *ast.HTMLBlock:
		raw := b.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(b.src))
		}
		return &source.HTML{Raw: raw}

	case *extast.Table:
		t := &source.Table{}
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			var cells [][]source.Node
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, b.inlines(cell))
			}
			t.Rows = append(t.Rows, cells)
		}
		return t
	}

	// Anything else is flattened into its text.
	var inlines []source.Node
	if n.Type() == ast.TypeInline {
		inlines = b.inline(nil, n)
	} else {
		inlines = b.inlines(n)
	}
	if len(inlines) == 0 {
		return nil
	}
	return &source.Paragraph{Inlines: inlines}
}

// lines joins the raw lines of a block node.
func (b *mdBuilder) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.src))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// splitInfo splits a fence info string into language and caption. The
// caption is whatever follows the language, with an optional title= prefix.
func splitInfo(info string) (string, string) {
	info = strings.TrimSpace(info)
	lang, rest, _ := strings.Cut(info, " ")
	rest = strings.TrimSpace(rest)
	if v, ok := strings.CutPrefix(rest, "title="); ok {
		rest = v
	}
	rest = strings.Trim(rest, `"'`)
	return lang, rest
}

func (b *mdBuilder) inlines(parent ast.Node) []source.Node {
	var out []source.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = b.inline(out, c)
	}
	return out
}

func (b *mdBuilder) inline(out []source.Node, n ast.Node) []source.Node {
	switch n := n.(type) {
	case *ast.Text:
		out = source.AppendText(out, string(n.Segment.Value(b.src)))
		switch {
		case n.HardLineBreak():
			out = source.AppendText(out, "\n")
		case n.SoftLineBreak():
			out = source.AppendText(out, " ")
		}
	case *ast.String:
		out = source.AppendText(out, string(n.Value))
	case *ast.Emphasis:
		if n.Level >= 2 {
			return append(out, &source.Bold{Children: b.inlines(n)})
		}
		return append(out, &source.Italic{Children: b.inlines(n)})
	case *ast.CodeSpan:
		return append(out, &source.Code{Children: b.inlines(n)})
	case *ast.Link:
		return append(out, &source.Link{URL: string(n.Destination), Children: b.inlines(n)})
	case *ast.AutoLink:
		url := string(n.URL(b.src))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
			url = "mailto:" + url
		}
		return append(out, &source.Link{URL: url, Children: []source.Node{&source.Text{Value: string(n.Label(b.src))}}})
	case *ast.Image:
		alt := source.PlainText(&source.Paragraph{Inlines: b.inlines(n)})
		return append(out, &source.Image{URL: string(n.Destination), Alt: alt})
	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(b.src))
		}
		return append(out, &source.RawHTML{Raw: buf.String()})
	case *extast.Strikethrough:
		return append(out, &source.Strikethrough{Children: b.inlines(n)})
	case *extast.TaskCheckBox:
		if n.IsChecked {
			return source.AppendText(out, "[x] ")
		}
		return source.AppendText(out, "[ ] ")
	case *MathInline:
		return append(out, &source.Math{Display: n.Display, Expression: string(n.Expression)})
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = b.inline(out, c)
		}
	}
	return out
}
