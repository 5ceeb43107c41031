package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/md2notion/internal/source"
)

// HTMLParser handles HTML files. Structural tags map onto source nodes;
// unknown containers are walked through; non-content elements are skipped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*source.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &source.Document{Title: titleFromFilename(filename)}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	body := findBody(root)
	if body == nil {
		body = root
	}
	doc.Children = htmlBlocks(body)
	return doc, nil
}

// htmlBlocks converts the children of n. Runs of inline content between
// block elements are wrapped in paragraphs.
func htmlBlocks(n *html.Node) []source.Node {
	var out []source.Node
	var pending []source.Node

	flush := func() {
		if strings.TrimSpace(source.PlainText(&source.Paragraph{Inlines: pending})) != "" {
			out = append(out, &source.Paragraph{Inlines: trimInlines(pending)})
		}
		pending = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isBlockElement(c.DataAtom) {
			flush()
			out = append(out, htmlBlock(c)...)
			continue
		}
		pending = htmlInline(pending, c)
	}
	flush()
	return out
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.P, atom.Ul, atom.Ol, atom.Li, atom.Blockquote, atom.Pre,
		atom.Hr, atom.Table, atom.Div, atom.Section, atom.Article, atom.Main,
		atom.Aside, atom.Figure, atom.Figcaption,
		atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript:
		return true
	}
	return false
}

func htmlBlock(n *html.Node) []source.Node {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript:
		return nil
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return []source.Node{&source.Heading{Level: headingLevel(n.Data), Inlines: trimInlines(htmlInlines(n))}}
	case atom.P:
		inlines := trimInlines(htmlInlines(n))
		if len(inlines) == 0 {
			return nil
		}
		return []source.Node{&source.Paragraph{Inlines: inlines}}
	case atom.Ul:
		return []source.Node{&source.BulletList{Items: htmlItems(n)}}
	case atom.Ol:
		start := 1
		if v, err := strconv.Atoi(attr(n, "start")); err == nil {
			start = v
		}
		return []source.Node{&source.OrderedList{Start: start, Items: htmlItems(n)}}
	case atom.Li:
		return []source.Node{&source.BulletList{Items: []*source.ListItem{{Children: htmlBlocks(n)}}}}
	case atom.Blockquote:
		return []source.Node{&source.BlockQuote{Children: htmlBlocks(n)}}
	case atom.Pre:
		return []source.Node{htmlCode(n)}
	case atom.Hr:
		return []source.Node{&source.ThematicBreak{}}
	case atom.Table:
		return []source.Node{htmlTable(n)}
	}
	// div, section and friends.
	return htmlBlocks(n)
}

func htmlItems(list *html.Node) []*source.ListItem {
	var items []*source.ListItem
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			items = append(items, &source.ListItem{Children: htmlBlocks(c)})
		}
	}
	return items
}

// htmlCode reads <pre><code class="language-x">.
func htmlCode(pre *html.Node) *source.CodeBlock {
	code := &source.CodeBlock{}
	target := pre
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			target = c
			break
		}
	}
	for _, class := range strings.Fields(attr(target, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			code.Language = lang
			break
		}
	}
	code.Text = strings.TrimSuffix(rawText(target), "\n")
	code.Caption = attr(pre, "title")
	return code
}

func htmlTable(table *html.Node) *source.Table {
	t := &source.Table{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Tr {
				var cells [][]source.Node
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						cells = append(cells, trimInlines(htmlInlines(cell)))
					}
				}
				t.Rows = append(t.Rows, cells)
				continue
			}
			walk(c)
		}
	}
	walk(table)
	return t
}

func htmlInlines(n *html.Node) []source.Node {
	var out []source.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = htmlInline(out, c)
	}
	return out
}

func htmlInline(out []source.Node, n *html.Node) []source.Node {
	switch n.Type {
	case html.TextNode:
		return source.AppendText(out, collapseSpace(n.Data))
	case html.ElementNode:
	default:
		return out
	}

	switch n.DataAtom {
	case atom.B, atom.Strong:
		return append(out, &source.Bold{Children: htmlInlines(n)})
	case atom.I, atom.Em:
		return append(out, &source.Italic{Children: htmlInlines(n)})
	case atom.S, atom.Del, atom.Strike:
		return append(out, &source.Strikethrough{Children: htmlInlines(n)})
	case atom.U, atom.Ins:
		return append(out, &source.Underline{Children: htmlInlines(n)})
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		return append(out, &source.Code{Children: []source.Node{&source.Text{Value: rawText(n)}}})
	case atom.A:
		href := attr(n, "href")
		if href == "" {
			return append(out, htmlInlines(n)...)
		}
		return append(out, &source.Link{URL: href, Children: htmlInlines(n)})
	case atom.Img:
		return append(out, &source.Image{URL: attr(n, "src"), Alt: attr(n, "alt")})
	case atom.Br:
		return source.AppendText(out, "\n")
	case atom.Script, atom.Style:
		return out
	case atom.Span:
		// KaTeX/MathJax style markup: <span class="math inline">x</span>.
		if hasClass(n, "math") {
			return append(out, &source.Math{Display: hasClass(n, "display"), Expression: rawText(n)})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = htmlInline(out, c)
	}
	return out
}

// trimInlines strips leading and trailing whitespace of the outer text nodes.
func trimInlines(nodes []source.Node) []source.Node {
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[0].(*source.Text); ok {
		t.Value = strings.TrimLeft(t.Value, " \n\t")
		if t.Value == "" {
			nodes = nodes[1:]
		}
	}
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[len(nodes)-1].(*source.Text); ok {
		t.Value = strings.TrimRight(t.Value, " \n\t")
		if t.Value == "" {
			nodes = nodes[:len(nodes)-1]
		}
	}
	return nodes
}

// collapseSpace folds runs of HTML whitespace into one space.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// rawText returns text content without whitespace folding.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
