package parser

import (
	"testing"

	"github.com/dgallion1/md2notion/internal/source"
)

func TestClassifyDocxStyle(t *testing.T) {
	tests := []struct {
		style     string
		wantKind  docxKind
		wantLevel int
	}{
		{"Heading1", docxHeading, 1},
		{"heading 3", docxHeading, 3},
		{"Heading6", docxHeading, 6},
		{"Title", docxTitle, 0},
		{"ListBullet", docxBullet, 0},
		{"List Paragraph", docxBullet, 0},
		{"List Number 2", docxNumber, 0},
		{"IntenseQuote", docxQuote, 0},
		{"SourceCode", docxCode, 0},
		{"Normal", docxBody, 0},
		{"", docxBody, 0},
		{"HeadingX", docxBody, 0},
	}
	for _, tt := range tests {
		kind, level := classifyDocxStyle(tt.style)
		if kind != tt.wantKind || level != tt.wantLevel {
			t.Errorf("classifyDocxStyle(%q) = (%d, %d), want (%d, %d)",
				tt.style, kind, level, tt.wantKind, tt.wantLevel)
		}
	}
}

func TestDocxBuilderGroupsListParagraphs(t *testing.T) {
	doc := &source.Document{}
	b := &docxBuilder{doc: doc}

	item := func(s string) *source.ListItem {
		return &source.ListItem{Children: []source.Node{textParagraph(s)}}
	}
	b.open = docxBullet
	b.items = []*source.ListItem{item("a"), item("b")}
	b.flush()
	b.emit(textParagraph("after"))

	if len(doc.Children) != 2 {
		t.Fatalf("expected list + paragraph, got %d nodes", len(doc.Children))
	}
	list, ok := doc.Children[0].(*source.BulletList)
	if !ok || len(list.Items) != 2 {
		t.Errorf("expected 2-item bullet list, got %#v", doc.Children[0])
	}
	if b.open != docxBody || b.items != nil {
		t.Error("flush must reset builder state")
	}
}

func TestPDFParagraphs(t *testing.T) {
	nodes := pdfParagraphs("Page one para one.\n\nPage one para two.\fPage two.\n\n\n")
	if len(nodes) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(nodes))
	}
	if got := paragraphText(t, nodes[2]); got != "Page two." {
		t.Errorf("got %q", got)
	}
}
