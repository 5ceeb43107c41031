package block

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/dgallion1/md2notion/internal/richtext"
)

const defaultColor = "default"

// envelope wraps a type-specific body as {"object":"block","type":T,T:body}.
type envelope struct {
	Type Type
	Body any
}

func (e envelope) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(e.Body)
	if err != nil {
		return nil, err
	}
	m := map[string]json.RawMessage{
		"object":       json.RawMessage(`"block"`),
		"type":         mustQuote(string(e.Type)),
		string(e.Type): body,
	}
	return json.Marshal(m)
}

func mustQuote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

type textBody struct {
	RichText []richtext.RichText `json:"rich_text"`
	Color    string              `json:"color"`
	Checked  *bool               `json:"checked,omitempty"`
	Children []Block             `json:"children,omitempty"`
}

type codeBody struct {
	RichText []richtext.RichText `json:"rich_text"`
	Caption  []richtext.RichText `json:"caption"`
	Language string              `json:"language"`
}

type equationBody struct {
	Expression string `json:"expression"`
}

func runs(r []richtext.RichText) []richtext.RichText {
	if r == nil {
		return []richtext.RichText{}
	}
	return r
}

func (p *Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: p.Type(), Body: textBody{RichText: runs(p.RichText), Color: defaultColor}})
}

func (h *Heading) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: h.Type(), Body: textBody{RichText: runs(h.RichText), Color: defaultColor}})
}

func (l *ListItem) MarshalJSON() ([]byte, error) {
	body := textBody{RichText: runs(l.RichText), Color: defaultColor, Children: l.Blocks}
	if l.Style == ToDo {
		checked := l.Checked
		body.Checked = &checked
	}
	return json.Marshal(envelope{Type: l.Type(), Body: body})
}

func (q *Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: q.Type(), Body: textBody{RichText: runs(q.RichText), Color: defaultColor, Children: q.Blocks}})
}

func (c *Code) MarshalJSON() ([]byte, error) {
	body := codeBody{
		RichText: splitPlain(c.Text),
		Caption:  splitPlain(c.Caption),
		Language: c.Language,
	}
	if body.Language == "" {
		body.Language = DefaultCodeLanguage
	}
	return json.Marshal(envelope{Type: c.Type(), Body: body})
}

func (e *Equation) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: e.Type(), Body: equationBody{Expression: e.Expression}})
}

// splitPlain cuts verbatim text into plain runs of at most
// richtext.MaxContentLength characters without touching its bytes.
func splitPlain(s string) []richtext.RichText {
	out := []richtext.RichText{}
	for s != "" {
		n, i := 0, 0
		for i < len(s) && n < richtext.MaxContentLength {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			n++
		}
		out = append(out, richtext.Plain(s[:i]))
		s = s[i:]
	}
	return out
}
