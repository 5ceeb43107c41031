package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Math adds $inline$, $$inline display$$ and fenced $$ ... $$ blocks to
// goldmark.
var Math = &mathExtension{}

type mathExtension struct{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&mathInlineParser{}, 150),
		),
		parser.WithBlockParsers(
			util.Prioritized(&mathBlockParser{}, 750),
		),
	)
}

var mathFence = []byte("$$")

// MathBlock is a display equation on its own lines.
type MathBlock struct {
	ast.BaseBlock
	closed bool
}

var KindMathBlock = ast.NewNodeKind("MathBlock")

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(src []byte, level int) {
	ast.DumpHelper(n, src, level, nil, nil)
}

// Expression returns the TeX between the fences.
func (n *MathBlock) Expression(src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}

// MathInline is $...$ or $$...$$ inside a paragraph.
type MathInline struct {
	ast.BaseInline
	Display    bool
	Expression []byte
}

var KindMathInline = ast.NewNodeKind("MathInline")

func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

func (n *MathInline) Dump(src []byte, level int) {
	ast.DumpHelper(n, src, level, map[string]string{"Expression": string(n.Expression)}, nil)
}

type mathInlineParser struct{}

func (s *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse follows the pandoc rules for single dollars: the opener is not
// followed by a space, the closer is not preceded by a space nor followed by
// a digit. Otherwise the $ stays literal text.
func (s *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 {
		return nil
	}

	delim := 1
	if line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	if len(body) == 0 || (delim == 1 && isSpace(body[0])) {
		return nil
	}

	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '$':
			if delim == 2 {
				if i+1 < len(body) && body[i+1] == '$' && i > 0 {
					node := &MathInline{Display: true, Expression: bytes.TrimSpace(copyBytes(body[:i]))}
					block.Advance(delim + i + 2)
					return node
				}
				continue
			}
			if i == 0 || isSpace(body[i-1]) {
				continue
			}
			if i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '9' {
				continue
			}
			node := &MathInline{Expression: copyBytes(body[:i])}
			block.Advance(delim + i + 1)
			return node
		case '\n':
			return nil
		}
	}
	return nil
}

func (s *mathInlineParser) CloseBlock(parent ast.Node, pc parser.Context) {}

type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], mathFence) {
		return nil, parser.NoChildren
	}

	node := &MathBlock{}
	start := pos + len(mathFence)
	rest := line[start:]
	if i := bytes.Index(rest, mathFence); i >= 0 {
		// One-line $$...$$; anything after the closer makes it a paragraph.
		if !util.IsBlank(rest[i+len(mathFence):]) {
			return nil, parser.NoChildren
		}
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Start+start+i))
		node.closed = true
	} else if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Stop))
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}

	line, segment := reader.PeekLine()
	if i := bytes.Index(line, mathFence); i >= 0 {
		if i > 0 {
			n.Lines().Append(text.NewSegment(segment.Start, segment.Start+i))
		}
		newline := 1
		if line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Len() - newline)
		n.closed = true
		return parser.Close
	}

	n.Lines().Append(segment)
	reader.AdvanceLine()
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (b *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
