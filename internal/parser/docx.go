package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/md2notion/internal/source"
)

// DOCXParser handles .docx files. Paragraph styles decide the node kind:
// headings, list paragraphs, quotes and code; run properties carry bold,
// italic and underline.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*source.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "md2notion-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &source.Document{Title: titleFromFilename(filename)}
	b := &docxBuilder{doc: doc}
	for _, item := range d.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			b.paragraph(para)
		}
	}
	b.flush()
	return doc, nil
}

type docxKind int

const (
	docxBody docxKind = iota
	docxHeading
	docxTitle
	docxBullet
	docxNumber
	docxQuote
	docxCode
)

// docxBuilder groups consecutive list, quote and code paragraphs.
type docxBuilder struct {
	doc    *source.Document
	open   docxKind
	items  []*source.ListItem
	quote  []source.Node
	code   []string
	titled bool
}

func (b *docxBuilder) paragraph(para *docx.Paragraph) {
	style := docxStyle(para)
	kind, level := classifyDocxStyle(style)
	inlines := docxInlines(para)

	if kind != b.open {
		b.flush()
	}

	switch kind {
	case docxTitle:
		if t := source.PlainText(&source.Paragraph{Inlines: inlines}); t != "" && !b.titled {
			b.doc.Title = strings.TrimSpace(t)
			b.titled = true
		}
	case docxHeading:
		if len(inlines) > 0 {
			b.emit(&source.Heading{Level: level, Inlines: inlines})
		}
	case docxBullet, docxNumber:
		b.open = kind
		b.items = append(b.items, &source.ListItem{Children: []source.Node{&source.Paragraph{Inlines: inlines}}})
	case docxQuote:
		b.open = kind
		if len(inlines) > 0 {
			b.quote = append(b.quote, &source.Paragraph{Inlines: inlines})
		}
	case docxCode:
		b.open = kind
		b.code = append(b.code, docxPlain(para))
	default:
		if len(inlines) > 0 {
			b.emit(&source.Paragraph{Inlines: inlines})
		}
	}
}

func (b *docxBuilder) emit(n source.Node) {
	b.doc.Children = append(b.doc.Children, n)
}

func (b *docxBuilder) flush() {
	switch b.open {
	case docxBullet:
		b.emit(&source.BulletList{Items: b.items})
	case docxNumber:
		b.emit(&source.OrderedList{Start: 1, Items: b.items})
	case docxQuote:
		if len(b.quote) > 0 {
			b.emit(&source.BlockQuote{Children: b.quote})
		}
	case docxCode:
		b.emit(&source.CodeBlock{Text: strings.Join(b.code, "\n")})
	}
	b.open = docxBody
	b.items, b.quote, b.code = nil, nil, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// classifyDocxStyle maps built-in Word style ids and names.
func classifyDocxStyle(style string) (docxKind, int) {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch {
	case s == "title":
		return docxTitle, 0
	case strings.HasPrefix(s, "heading") && len(s) == len("heading")+1:
		level := int(s[len(s)-1] - '0')
		if level >= 1 && level <= 9 {
			return docxHeading, level
		}
	case s == "subtitle":
		return docxHeading, 2
	case strings.HasPrefix(s, "listnumber"):
		return docxNumber, 0
	case strings.HasPrefix(s, "listbullet"), s == "listparagraph":
		return docxBullet, 0
	case s == "quote", s == "intensequote":
		return docxQuote, 0
	case strings.Contains(s, "code"), s == "htmlpreformatted":
		return docxCode, 0
	}
	return docxBody, 0
}

// docxInlines maps runs to marked text. Adjacent runs with the same marks
// are left as separate nodes; the converter does not need them merged.
func docxInlines(para *docx.Paragraph) []source.Node {
	var out []source.Node
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		text := docxRunText(run)
		if text == "" {
			continue
		}
		var n source.Node = &source.Text{Value: text}
		if props := run.RunProperties; props != nil {
			if props.Underline != nil {
				n = &source.Underline{Children: []source.Node{n}}
			}
			if props.Italic != nil {
				n = &source.Italic{Children: []source.Node{n}}
			}
			if props.Bold != nil {
				n = &source.Bold{Children: []source.Node{n}}
			}
		}
		if t, ok := n.(*source.Text); ok {
			out = source.AppendText(out, t.Value)
			continue
		}
		out = append(out, n)
	}
	return trimInlines(out)
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return norm.NFC.String(buf.String())
}

func docxPlain(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			buf.WriteString(docxRunText(run))
		}
	}
	return buf.String()
}
