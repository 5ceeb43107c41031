// Package convert turns a source document tree into Notion blocks.
//
// A Converter holds an immutable Registry and options; it is safe to share
// between goroutines. Conversion never does I/O and never aborts: unsupported
// nodes degrade to plain-text paragraphs and too-deep subtrees degrade to a
// single paragraph, with the failures reported through the returned error.
package convert

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/equation"
	"github.com/dgallion1/md2notion/internal/richtext"
	"github.com/dgallion1/md2notion/internal/source"
)

// DefaultMaxDepth bounds container nesting.
const DefaultMaxDepth = 64

// ErrExcessiveNestingDepth matches every *NestingError.
var ErrExcessiveNestingDepth = errors.New("excessive nesting depth")

// NestingError reports a subtree that was replaced because it sat deeper
// than the converter's maximum depth.
type NestingError struct {
	Depth int
	Kind  source.Kind
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("%s at depth %d: %v", e.Kind, e.Depth, ErrExcessiveNestingDepth)
}

func (e *NestingError) Unwrap() error { return ErrExcessiveNestingDepth }

// Context travels down the walk. It is passed by value.
type Context struct {
	Depth int
	List  ListContext
}

// ListContext describes the innermost enclosing list.
type ListContext struct {
	InList  bool
	Ordered bool
}

// Nested returns the context for the children of a container block.
func (c Context) Nested() Context {
	c.Depth++
	return c
}

// WithList returns the context for the items of a list.
func (c Context) WithList(ordered bool) Context {
	c.List = ListContext{InList: true, Ordered: ordered}
	return c
}

type Option func(*Converter)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithEquationNumbers makes numbered display equations emit a trailing
// "(n)" paragraph.
func WithEquationNumbers(on bool) Option {
	return func(c *Converter) { c.equationNumbers = on }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

type Converter struct {
	registry        *Registry
	maxDepth        int
	equationNumbers bool
	log             *slog.Logger
}

// New returns a Converter dispatching through reg, or the default registry
// when reg is nil.
func New(reg *Registry, opts ...Option) *Converter {
	if reg == nil {
		reg = NewRegistry()
	}
	c := &Converter{
		registry: reg,
		maxDepth: DefaultMaxDepth,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ConvertDocument converts the top-level nodes of doc. The returned forest is
// complete even when err is non-nil; err joins every nesting failure and
// handler error encountered.
func (c *Converter) ConvertDocument(doc *source.Document) ([]block.Block, error) {
	if doc == nil {
		return nil, nil
	}
	return c.walker().Blocks(doc.Children, Context{})
}

// ConvertInline runs the annotation merge engine over an inline sequence.
func (c *Converter) ConvertInline(nodes []source.Node) []richtext.RichText {
	return c.walker().Inline(nodes)
}

func (c *Converter) walker() Walker { return Walker{c: c} }

// Walker dispatches nodes through the registry. Handlers receive it to
// convert their children.
type Walker struct {
	c *Converter
}

// Blocks converts nodes in order and concatenates their blocks.
func (w Walker) Blocks(nodes []source.Node, ctx Context) ([]block.Block, error) {
	var out []block.Block
	var errs []error
	for _, n := range nodes {
		blocks, err := w.Node(n, ctx)
		out = append(out, blocks...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// Node converts a single node.
func (w Walker) Node(n source.Node, ctx Context) ([]block.Block, error) {
	if ctx.Depth > w.c.maxDepth {
		err := &NestingError{Depth: ctx.Depth, Kind: n.Kind()}
		w.c.log.Warn("subtree too deep, flattened", "kind", n.Kind().String(), "depth", ctx.Depth)
		return []block.Block{block.NewParagraph(richtext.Plain(source.PlainText(n)))}, err
	}

	h, err := w.c.registry.Resolve(n.Kind())
	if err != nil {
		w.c.log.Debug("unsupported node rendered as text", "kind", n.Kind().String())
		return []block.Block{block.NewParagraph(richtext.Plain(source.PlainText(n)))}, nil
	}
	return h.Convert(w, n, ctx)
}

// Logger returns the converter's logger.
func (w Walker) Logger() *slog.Logger { return w.c.log }

func (w Walker) normalize(expr string, mode equation.Mode) string {
	out, err := equation.Normalize(expr, mode)
	if err != nil {
		w.c.log.Debug("equation passed through unnormalized", "error", err)
	}
	return out
}
