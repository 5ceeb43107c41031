// Package source defines the parsed document tree handed to the converter.
//
// The node set is closed: every concrete type below reports one Kind, and the
// converter's registry is indexed by that Kind. Nodes own their children; there
// are no parent pointers.
package source

// Kind identifies a node variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindDocument

	// Block kinds.
	KindHeading
	KindParagraph
	KindBulletList
	KindOrderedList
	KindListItem
	KindBlockQuote
	KindCodeBlock
	KindMath
	KindThematicBreak
	KindTable
	KindHTML

	// Inline kinds.
	KindText
	KindBold
	KindItalic
	KindStrikethrough
	KindUnderline
	KindCode
	KindLink
	KindImage
	KindRawHTML

	// NumKinds is the number of kinds, usable as an array bound.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindInvalid:       "Invalid",
	KindDocument:      "Document",
	KindHeading:       "Heading",
	KindParagraph:     "Paragraph",
	KindBulletList:    "BulletList",
	KindOrderedList:   "OrderedList",
	KindListItem:      "ListItem",
	KindBlockQuote:    "BlockQuote",
	KindCodeBlock:     "CodeBlock",
	KindMath:          "Math",
	KindThematicBreak: "ThematicBreak",
	KindTable:         "Table",
	KindHTML:          "HTML",
	KindText:          "Text",
	KindBold:          "Bold",
	KindItalic:        "Italic",
	KindStrikethrough: "Strikethrough",
	KindUnderline:     "Underline",
	KindCode:          "Code",
	KindLink:          "Link",
	KindImage:         "Image",
	KindRawHTML:       "RawHTML",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return "Unknown"
}

// IsInline reports whether k is an inline node kind. Math is both and is
// reported as a block kind.
func (k Kind) IsInline() bool {
	return k >= KindText && k < NumKinds
}

// Node is implemented by every node type in this package.
type Node interface {
	Kind() Kind
}

// Document is the root of a parsed file.
type Document struct {
	Title      string         // From front matter or the filename
	Properties map[string]any // Remaining front matter, if any
	Children   []Node
}

// Heading is an ATX/Setext heading or an HTML h1-h6. Level is 1-6 as parsed.
type Heading struct {
	Level   int
	Inlines []Node
}

type Paragraph struct {
	Inlines []Node
}

type BulletList struct {
	Items []*ListItem
}

// OrderedList keeps the parsed start index.
type OrderedList struct {
	Start int
	Items []*ListItem
}

// ListItem holds block children. A tight list item's text arrives as a
// leading Paragraph.
type ListItem struct {
	Children []Node
}

type BlockQuote struct {
	Children []Node
}

// CodeBlock holds raw text exactly as written, without the fence.
type CodeBlock struct {
	Language string
	Caption  string
	Text     string
}

// Math is a TeX expression without its delimiters.
type Math struct {
	Display    bool
	Expression string
}

type ThematicBreak struct{}

// Table rows are cells of inline content; the header row comes first.
type Table struct {
	Rows [][][]Node
}

// HTML is a raw HTML block.
type HTML struct {
	Raw string
}

// Text is a plain text leaf. Parsers coalesce adjacent text.
type Text struct {
	Value string
}

type Bold struct{ Children []Node }

type Italic struct{ Children []Node }

type Strikethrough struct{ Children []Node }

type Underline struct{ Children []Node }

// Code is an inline code span.
type Code struct{ Children []Node }

type Link struct {
	URL      string
	Children []Node
}

type Image struct {
	URL string
	Alt string
}

// RawHTML is inline markup the parser passed through.
type RawHTML struct {
	Raw string
}

func (*Document) Kind() Kind      { return KindDocument }
func (*Heading) Kind() Kind       { return KindHeading }
func (*Paragraph) Kind() Kind     { return KindParagraph }
func (*BulletList) Kind() Kind    { return KindBulletList }
func (*OrderedList) Kind() Kind   { return KindOrderedList }
func (*ListItem) Kind() Kind      { return KindListItem }
func (*BlockQuote) Kind() Kind    { return KindBlockQuote }
func (*CodeBlock) Kind() Kind     { return KindCodeBlock }
func (*Math) Kind() Kind          { return KindMath }
func (*ThematicBreak) Kind() Kind { return KindThematicBreak }
func (*Table) Kind() Kind         { return KindTable }
func (*HTML) Kind() Kind          { return KindHTML }
func (*Text) Kind() Kind          { return KindText }
func (*Bold) Kind() Kind          { return KindBold }
func (*Italic) Kind() Kind        { return KindItalic }
func (*Strikethrough) Kind() Kind { return KindStrikethrough }
func (*Underline) Kind() Kind     { return KindUnderline }
func (*Code) Kind() Kind          { return KindCode }
func (*Link) Kind() Kind          { return KindLink }
func (*Image) Kind() Kind         { return KindImage }
func (*RawHTML) Kind() Kind       { return KindRawHTML }

// Children returns the direct children of n, or nil for leaves.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Document:
		return n.Children
	case *Heading:
		return n.Inlines
	case *Paragraph:
		return n.Inlines
	case *BulletList:
		return items(n.Items)
	case *OrderedList:
		return items(n.Items)
	case *ListItem:
		return n.Children
	case *BlockQuote:
		return n.Children
	case *Bold:
		return n.Children
	case *Italic:
		return n.Children
	case *Strikethrough:
		return n.Children
	case *Underline:
		return n.Children
	case *Code:
		return n.Children
	case *Link:
		return n.Children
	}
	return nil
}

func items(list []*ListItem) []Node {
	out := make([]Node, len(list))
	for i, it := range list {
		out[i] = it
	}
	return out
}

// AppendText appends a Text leaf to nodes, merging it into a trailing Text
// leaf when there is one.
func AppendText(nodes []Node, s string) []Node {
	if s == "" {
		return nodes
	}
	if n := len(nodes); n > 0 {
		if t, ok := nodes[n-1].(*Text); ok {
			t.Value += s
			return nodes
		}
	}
	return append(nodes, &Text{Value: s})
}
