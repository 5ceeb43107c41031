// Package richtext models one formatted run of inline content in the shape
// the Notion API expects inside a block's "rich_text" array.
package richtext

import (
	"encoding/json"
)

// MaxContentLength is the API limit on the content of a single text run,
// counted in characters.
const MaxContentLength = 2000

// Kind distinguishes plain text runs from inline TeX equations.
type Kind uint8

const (
	KindText Kind = iota
	KindEquation
)

func (k Kind) String() string {
	if k == KindEquation {
		return "equation"
	}
	return "text"
}

// Annotations are the formatting flags of a run. Color is always "default".
type Annotations struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          bool
}

// RichText is an immutable run. Build one with Text or Equation; the With
// methods return modified copies.
type RichText struct {
	kind        Kind
	content     string
	expression  string
	annotations Annotations
	link        string
}

// Text returns a text run. An empty link means no link.
func Text(content string, ann Annotations, link string) RichText {
	return RichText{kind: KindText, content: content, annotations: ann, link: link}
}

// Plain returns an unformatted text run.
func Plain(content string) RichText {
	return RichText{kind: KindText, content: content}
}

// Equation returns an inline equation run. Equation runs never carry
// annotations or links.
func Equation(expression string) RichText {
	return RichText{kind: KindEquation, expression: expression}
}

func (r RichText) Kind() Kind               { return r.kind }
func (r RichText) Content() string          { return r.content }
func (r RichText) Expression() string       { return r.expression }
func (r RichText) Annotations() Annotations { return r.annotations }
func (r RichText) Link() string             { return r.link }
func (r RichText) IsEquation() bool         { return r.kind == KindEquation }

// PlainText is the content for text runs and the expression for equations.
func (r RichText) PlainText() string {
	if r.kind == KindEquation {
		return r.expression
	}
	return r.content
}

// WithContent returns a copy with the text content replaced.
func (r RichText) WithContent(content string) RichText {
	r.content = content
	return r
}

func (r RichText) WithAnnotations(ann Annotations) RichText {
	if r.kind == KindEquation {
		return r
	}
	r.annotations = ann
	return r
}

func (r RichText) WithLink(link string) RichText {
	if r.kind == KindEquation {
		return r
	}
	r.link = link
	return r
}

// Concat joins the plain text of runs.
func Concat(runs []RichText) string {
	var n int
	for _, r := range runs {
		n += len(r.PlainText())
	}
	buf := make([]byte, 0, n)
	for _, r := range runs {
		buf = append(buf, r.PlainText()...)
	}
	return string(buf)
}

type wireLink struct {
	URL string `json:"url"`
}

type wireText struct {
	Content string    `json:"content"`
	Link    *wireLink `json:"link"`
}

type wireEquation struct {
	Expression string `json:"expression"`
}

type wireAnnotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type wireRichText struct {
	Type        string          `json:"type"`
	Text        *wireText       `json:"text,omitempty"`
	Equation    *wireEquation   `json:"equation,omitempty"`
	Annotations wireAnnotations `json:"annotations"`
	PlainText   string          `json:"plain_text"`
	Href        *string         `json:"href"`
}

// MarshalJSON encodes the run as a Notion rich text object.
func (r RichText) MarshalJSON() ([]byte, error) {
	w := wireRichText{
		Type:      r.kind.String(),
		PlainText: r.PlainText(),
		Annotations: wireAnnotations{
			Color: "default",
		},
	}
	if r.kind == KindEquation {
		w.Equation = &wireEquation{Expression: r.expression}
		return json.Marshal(w)
	}

	w.Text = &wireText{Content: r.content}
	w.Annotations.Bold = r.annotations.Bold
	w.Annotations.Italic = r.annotations.Italic
	w.Annotations.Strikethrough = r.annotations.Strikethrough
	w.Annotations.Underline = r.annotations.Underline
	w.Annotations.Code = r.annotations.Code
	if r.link != "" {
		link := r.link
		w.Text.Link = &wireLink{URL: link}
		w.Href = &link
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. The API client
// uses it to read rich text back from responses.
func (r *RichText) UnmarshalJSON(data []byte) error {
	var w wireRichText
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == "equation" && w.Equation != nil {
		*r = Equation(w.Equation.Expression)
		return nil
	}
	var content, link string
	if w.Text != nil {
		content = w.Text.Content
		if w.Text.Link != nil {
			link = w.Text.Link.URL
		}
	}
	*r = Text(content, Annotations{
		Bold:          w.Annotations.Bold,
		Italic:        w.Annotations.Italic,
		Strikethrough: w.Annotations.Strikethrough,
		Underline:     w.Annotations.Underline,
		Code:          w.Annotations.Code,
	}, link)
	return nil
}
