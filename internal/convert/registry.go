package convert

import (
	"errors"
	"fmt"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/source"
)

// ErrUnsupportedNodeKind is returned by Resolve for kinds with no handler.
var ErrUnsupportedNodeKind = errors.New("unsupported node kind")

// Handler converts one source node into zero or more blocks. Nested nodes
// go back through the Walker.
type Handler interface {
	Convert(w Walker, n source.Node, ctx Context) ([]block.Block, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(w Walker, n source.Node, ctx Context) ([]block.Block, error)

func (f HandlerFunc) Convert(w Walker, n source.Node, ctx Context) ([]block.Block, error) {
	return f(w, n, ctx)
}

// Registry maps node kinds to handlers. It is never mutated after
// construction and may be shared between goroutines.
type Registry struct {
	handlers [source.NumKinds]Handler
}

// NewRegistry returns a registry with the default handler set.
func NewRegistry() *Registry {
	r := &Registry{}
	r.handlers[source.KindHeading] = HandlerFunc(convertHeading)
	r.handlers[source.KindParagraph] = HandlerFunc(convertParagraph)
	r.handlers[source.KindBulletList] = HandlerFunc(convertList)
	r.handlers[source.KindOrderedList] = HandlerFunc(convertList)
	r.handlers[source.KindListItem] = HandlerFunc(convertListItem)
	r.handlers[source.KindBlockQuote] = HandlerFunc(convertQuote)
	r.handlers[source.KindCodeBlock] = HandlerFunc(convertCode)
	r.handlers[source.KindMath] = HandlerFunc(convertMath)
	for _, k := range []source.Kind{
		source.KindText, source.KindBold, source.KindItalic, source.KindStrikethrough,
		source.KindUnderline, source.KindCode, source.KindLink,
	} {
		r.handlers[k] = HandlerFunc(convertStrayInline)
	}
	return r
}

// With returns a copy of r with h registered for kind. A nil h removes the
// registration.
func (r *Registry) With(kind source.Kind, h Handler) *Registry {
	c := *r
	if kind < source.NumKinds {
		c.handlers[kind] = h
	}
	return &c
}

// Resolve returns the handler for kind.
func (r *Registry) Resolve(kind source.Kind) (Handler, error) {
	if kind >= source.NumKinds || r.handlers[kind] == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNodeKind, kind)
	}
	return r.handlers[kind], nil
}

// Supported lists the kinds with a handler, in Kind order.
func (r *Registry) Supported() []source.Kind {
	var out []source.Kind
	for k, h := range r.handlers {
		if h != nil {
			out = append(out, source.Kind(k))
		}
	}
	return out
}
