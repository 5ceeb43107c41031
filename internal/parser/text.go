package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/md2notion/internal/source"
)

// TextParser handles plain text files. Blank lines separate paragraphs;
// line breaks inside a paragraph are kept.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*source.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &source.Document{Title: titleFromFilename(filename)}
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			doc.Children = append(doc.Children, textParagraph(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func textParagraph(s string) *source.Paragraph {
	return &source.Paragraph{Inlines: []source.Node{&source.Text{Value: s}}}
}
