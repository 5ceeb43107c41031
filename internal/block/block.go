// Package block defines the Notion block objects the converter produces.
//
// Block is sealed: only the types in this package implement it. List items
// and quotes may have children; every other kind is a leaf.
package block

import (
	"encoding/json"

	"github.com/dgallion1/md2notion/internal/richtext"
)

// Type is the Notion block type name.
type Type string

const (
	TypeParagraph        Type = "paragraph"
	TypeHeading1         Type = "heading_1"
	TypeHeading2         Type = "heading_2"
	TypeHeading3         Type = "heading_3"
	TypeBulletedListItem Type = "bulleted_list_item"
	TypeNumberedListItem Type = "numbered_list_item"
	TypeToDo             Type = "to_do"
	TypeQuote            Type = "quote"
	TypeCode             Type = "code"
	TypeEquation         Type = "equation"
)

// DefaultCodeLanguage is used when a code block has no language.
const DefaultCodeLanguage = "plain text"

// Block is one Notion block.
type Block interface {
	json.Marshaler
	Type() Type
	Children() []Block
	sealed()
}

type Paragraph struct {
	RichText []richtext.RichText
}

// Heading levels are 1-3; NewHeading clamps.
type Heading struct {
	Level    int
	RichText []richtext.RichText
}

// ListStyle selects the list item block type.
type ListStyle uint8

const (
	Bulleted ListStyle = iota
	Numbered
	ToDo
)

type ListItem struct {
	Style    ListStyle
	Checked  bool // to_do only
	RichText []richtext.RichText
	Blocks   []Block
}

type Quote struct {
	RichText []richtext.RichText
	Blocks   []Block
}

// Code keeps Text verbatim. Language is passed to the API unchanged.
type Code struct {
	Language string
	Caption  string
	Text     string
}

// Equation is a display equation. Number is informational; the API has no
// field for it.
type Equation struct {
	Expression string
	Number     string
}

func NewParagraph(runs ...richtext.RichText) *Paragraph {
	return &Paragraph{RichText: runs}
}

// NewHeading clamps level to 1-3.
func NewHeading(level int, runs []richtext.RichText) *Heading {
	return &Heading{Level: ClampLevel(level), RichText: runs}
}

// ClampLevel maps source heading levels onto the three the API supports.
func ClampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 3:
		return 3
	}
	return level
}

// NewCode fills in the default language.
func NewCode(language, text, caption string) *Code {
	if language == "" {
		language = DefaultCodeLanguage
	}
	return &Code{Language: language, Text: text, Caption: caption}
}

func (*Paragraph) Type() Type { return TypeParagraph }

func (h *Heading) Type() Type {
	switch ClampLevel(h.Level) {
	case 1:
		return TypeHeading1
	case 2:
		return TypeHeading2
	}
	return TypeHeading3
}

func (l *ListItem) Type() Type {
	switch l.Style {
	case Numbered:
		return TypeNumberedListItem
	case ToDo:
		return TypeToDo
	}
	return TypeBulletedListItem
}

func (*Quote) Type() Type    { return TypeQuote }
func (*Code) Type() Type     { return TypeCode }
func (*Equation) Type() Type { return TypeEquation }

func (*Paragraph) Children() []Block  { return nil }
func (*Heading) Children() []Block    { return nil }
func (l *ListItem) Children() []Block { return l.Blocks }
func (q *Quote) Children() []Block    { return q.Blocks }
func (*Code) Children() []Block       { return nil }
func (*Equation) Children() []Block   { return nil }

func (*Paragraph) sealed() {}
func (*Heading) sealed()   {}
func (*ListItem) sealed()  {}
func (*Quote) sealed()     {}
func (*Code) sealed()      {}
func (*Equation) sealed()  {}

// RichText returns the rich text of b, or nil for kinds without any.
func RichText(b Block) []richtext.RichText {
	switch b := b.(type) {
	case *Paragraph:
		return b.RichText
	case *Heading:
		return b.RichText
	case *ListItem:
		return b.RichText
	case *Quote:
		return b.RichText
	}
	return nil
}

// WithoutChildren returns a shallow copy of b with no children. Leaves are
// returned as is.
func WithoutChildren(b Block) Block {
	switch b := b.(type) {
	case *ListItem:
		c := *b
		c.Blocks = nil
		return &c
	case *Quote:
		c := *b
		c.Blocks = nil
		return &c
	}
	return b
}

// MapRichText returns a copy of b with fn applied to every rich text array,
// recursing into children. Code captions and text are left alone.
func MapRichText(b Block, fn func([]richtext.RichText) []richtext.RichText) Block {
	switch b := b.(type) {
	case *Paragraph:
		return &Paragraph{RichText: fn(b.RichText)}
	case *Heading:
		return &Heading{Level: b.Level, RichText: fn(b.RichText)}
	case *ListItem:
		c := *b
		c.RichText = fn(b.RichText)
		c.Blocks = mapAll(b.Blocks, fn)
		return &c
	case *Quote:
		return &Quote{RichText: fn(b.RichText), Blocks: mapAll(b.Blocks, fn)}
	}
	return b
}

func mapAll(blocks []Block, fn func([]richtext.RichText) []richtext.RichText) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, c := range blocks {
		out[i] = MapRichText(c, fn)
	}
	return out
}

// Count returns the number of blocks in the forest, children included.
func Count(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		n += 1 + Count(b.Children())
	}
	return n
}

// Depth returns the nesting depth of the forest; a flat forest has depth 1.
func Depth(blocks []Block) int {
	max := 0
	for _, b := range blocks {
		if d := 1 + Depth(b.Children()); d > max {
			max = d
		}
	}
	return max
}
