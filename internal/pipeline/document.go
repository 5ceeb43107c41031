package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/chunker"
	"github.com/dgallion1/md2notion/internal/config"
	"github.com/dgallion1/md2notion/internal/convert"
	"github.com/dgallion1/md2notion/internal/notion"
	"github.com/dgallion1/md2notion/internal/parser"
	"github.com/dgallion1/md2notion/internal/richtext"
	"github.com/dgallion1/md2notion/internal/source"
)

// Converted is a document ready to publish.
type Converted struct {
	Title      string             `json:"title"`
	Blocks     []block.Block      `json:"blocks"`
	Warnings   []string           `json:"warnings"`
	Violations []notion.Violation `json:"errors"`
}

// Hash identifies the published content: title and block JSON.
func (c *Converted) Hash() (string, error) {
	data, err := json.Marshal(struct {
		Title  string        `json:"title"`
		Blocks []block.Block `json:"blocks"`
	}{c.Title, c.Blocks})
	if err != nil {
		return "", fmt.Errorf("hash blocks: %w", err)
	}
	return ContentHashHex(data), nil
}

// DocumentConverter runs parse and convert for both the synchronous convert
// endpoints and the publish workers.
type DocumentConverter struct {
	conv       *convert.Converter
	parserOpts parser.Options
	chunkCfg   chunker.Config
	maxDepth   int
}

func NewDocumentConverter(cfg config.Config, log *slog.Logger) *DocumentConverter {
	return &DocumentConverter{
		conv: convert.New(nil,
			convert.WithMaxDepth(cfg.MaxNestingDepth),
			convert.WithEquationNumbers(cfg.EquationNumbers),
			convert.WithLogger(log),
		),
		parserOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		chunkCfg:   chunker.DefaultConfig(),
		maxDepth:   cfg.MaxNestingDepth,
	}
}

// Parse selects a parser by filename extension.
func (d *DocumentConverter) Parse(filename string, data []byte) (*source.Document, error) {
	p, err := parser.ForFile(filename, d.parserOpts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

// Convert turns doc into blocks split to the request limits. Converter
// degradations become warnings; limits the blocks still break become
// violations.
func (d *DocumentConverter) Convert(doc *source.Document) *Converted {
	blocks, err := d.conv.ConvertDocument(doc)
	blocks = chunker.Prepare(blocks, d.chunkCfg)
	// Converted blocks sit at most maxDepth+1 deep; placeholders for
	// flattened subtrees one level below that.
	violations := notion.Validate(blocks, d.maxDepth+2)
	if violations == nil {
		violations = []notion.Violation{}
	}
	return &Converted{
		Title:      doc.Title,
		Blocks:     nonNilBlocks(blocks),
		Warnings:   flattenErrors(err),
		Violations: violations,
	}
}

// ConvertInline converts Markdown inline text to runs. Block structure is
// discarded; paragraphs are joined with newlines.
func (d *DocumentConverter) ConvertInline(md string) ([]richtext.RichText, error) {
	doc, err := (&parser.MarkdownParser{}).Parse(strings.NewReader(md), "inline.md")
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var inlines []source.Node
	for _, n := range doc.Children {
		var in []source.Node
		switch n := n.(type) {
		case *source.Paragraph:
			in = n.Inlines
		case *source.Heading:
			in = n.Inlines
		case *source.Math:
			in = []source.Node{n}
		default:
			in = []source.Node{&source.Text{Value: source.PlainText(n)}}
		}
		if len(inlines) > 0 {
			inlines = append(inlines, &source.Text{Value: "\n"})
		}
		inlines = append(inlines, in...)
	}

	runs := chunker.SplitRuns(d.conv.ConvertInline(inlines), d.chunkCfg.MaxContent)
	if runs == nil {
		runs = []richtext.RichText{}
	}
	return runs, nil
}

// flattenErrors unpacks joined errors into messages.
func flattenErrors(err error) []string {
	if err == nil {
		return []string{}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	if errors.Is(err, convert.ErrExcessiveNestingDepth) {
		return []string{"flattened: " + err.Error()}
	}
	return []string{err.Error()}
}

func nonNilBlocks(b []block.Block) []block.Block {
	if b == nil {
		return []block.Block{}
	}
	return b
}
